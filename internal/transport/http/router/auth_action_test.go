package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/service"
	pkgtest "go-user-service/pkg/test"
)

type AuthActionSuite struct {
	suite.Suite
	r   *gin.Engine
	svc *service.UserService
}

func TestAuthActionSuite(t *testing.T) {
	suite.Run(t, new(AuthActionSuite))
}

func (s *AuthActionSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	db := pkgtest.NewDB(s.T())
	s.svc = service.NewUserService(db, nil)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	s.r = NewAPIEngine(zap.NewNop(), s.svc, jwter, nil, []string{"root@example.com"})
}

func (s *AuthActionSuite) register(username, email string) {
	_, err := s.svc.CreateUser(s.T().Context(), service.CreateUserInput{
		Username:  username,
		Email:     email,
		FirstName: "John",
		LastName:  "Doe",
		Password:  "s3cret",
	})
	require.NoError(s.T(), err)
}

func (s *AuthActionSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.T(), err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *AuthActionSuite) login(email, password string) (*httptest.ResponseRecorder, string, string) {
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": email, "password": password,
	})
	if w.Code != http.StatusOK {
		return w, "", ""
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				Role string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &env))
	return w, env.Data.Token, env.Data.User.Role
}

func (s *AuthActionSuite) TestLoginAndMe() {
	s.register("johndoe", "john@example.com")

	w, token, role := s.login("john@example.com", "s3cret")
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.NotEmpty(s.T(), token)
	assert.Equal(s.T(), "user", role)

	w = s.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	var env struct {
		Data struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(s.T(), "johndoe", env.Data.Username)
	assert.Equal(s.T(), "john@example.com", env.Data.Email)
}

func (s *AuthActionSuite) TestLogin_WrongPassword() {
	s.register("johndoe", "john@example.com")

	w, _, _ := s.login("john@example.com", "wrong")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthActionSuite) TestLogin_AdminEmailGetsAdminRole() {
	s.register("root", "root@example.com")

	w, token, role := s.login("root@example.com", "s3cret")
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.NotEmpty(s.T(), token)
	assert.Equal(s.T(), "admin", role)
}

func (s *AuthActionSuite) TestMe_RequiresToken() {
	w := s.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthActionSuite) TestLogout() {
	s.register("johndoe", "john@example.com")
	w, token, _ := s.login("john@example.com", "s3cret")
	require.Equal(s.T(), http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(s.T(), http.StatusNoContent, w.Code)
}

func (s *AuthActionSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}
