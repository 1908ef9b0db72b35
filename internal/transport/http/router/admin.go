package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/core/session"
	mdw "go-user-service/internal/transport/http/middleware"
)

// NewAdminEngine builds the internal admin engine. Every /admin/v1 route
// requires an admin token.
func NewAdminEngine(l *zap.Logger, jwter *auth.JWTer, sessions *session.Store) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, sessions, "admin"))

	MountAllAdmin(admin)

	return r
}
