package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/core/session"
	"go-user-service/internal/domain"
	"go-user-service/internal/service"
	httpez "go-user-service/internal/transport/http/ez"
)

// mountAuthActions registers /auth/login on the public group and
// /auth/logout + /me on the authenticated group.
func mountAuthActions(api, authed *gin.RouterGroup, svc *service.UserService, jwter *auth.JWTer, sessions *session.Store, adminEmails []string) {
	ezPublic := httpez.New(api)

	isAdmin := func(email string) bool {
		for _, a := range adminEmails {
			if strings.EqualFold(strings.TrimSpace(a), email) {
				return true
			}
		}
		return false
	}

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string `json:"token"`
		User  gin.H  `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ezPublic, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, err := svc.Authenticate(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				if errors.Is(err, service.ErrInvalidCredentials) {
					return loginOut{}, httpez.Unauthorized("invalid credentials")
				}
				return loginOut{}, err
			}
			role := "user"
			if isAdmin(u.Email()) {
				role = "admin"
			}
			tok, err := jwter.Issue(u.ID(), role)
			if err != nil || tok == "" {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{
				Token: tok,
				User: gin.H{
					"id": u.ID(), "username": u.Username(), "email": u.Email(), "role": role,
				},
			}, nil
		},
	})

	ezAuth := httpez.New(authed)

	httpez.RegisterAction[struct{}, struct{}](ezAuth, httpez.Action[struct{}, struct{}]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: httpez.BindNone,
		Auth:   true,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			jti := c.GetString("tokenId")
			if jti == "" || sessions == nil {
				return struct{}{}, nil
			}
			ttl := time.Hour
			if exp, ok := c.Get("tokenExpiry"); ok {
				if t, ok := exp.(time.Time); ok && !t.IsZero() {
					ttl = time.Until(t)
				}
			}
			if err := sessions.Revoke(c.Request.Context(), jti, ttl); err != nil {
				return struct{}{}, httpez.Internal("logout failed", err)
			}
			return struct{}{}, nil
		},
	})

	type meOut struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	httpez.RegisterAction[struct{}, meOut](ezAuth, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			uid := c.GetString("userId")
			u, err := svc.GetUser(c.Request.Context(), uid)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return meOut{}, httpez.NotFound("user not found")
				}
				return meOut{}, err
			}
			return meOut{
				ID:        u.ID(),
				Username:  u.Username(),
				Email:     u.Email(),
				FirstName: u.FirstName(),
				LastName:  u.LastName(),
			}, nil
		},
	})
}
