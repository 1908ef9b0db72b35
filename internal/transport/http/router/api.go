package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/core/server"
	"go-user-service/internal/core/session"
	"go-user-service/internal/service"
	mdw "go-user-service/internal/transport/http/middleware"
)

// NewAPIEngine builds the public engine. Browser-facing, so it sits on the
// ginzap+cors base; request logging comes from ginzap there.
func NewAPIEngine(l *zap.Logger, svc *service.UserService, jwter *auth.JWTer, sessions *session.Store, adminEmails []string) *gin.Engine {
	r := server.NewRouter(l)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// Modules registered via Register() land here.
	MountAllAPI(api)

	// /me and /auth/logout need the identity from the token.
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(jwter, sessions, ""))

	mountAuthActions(api, authed, svc, jwter, sessions, adminEmails)

	return r
}
