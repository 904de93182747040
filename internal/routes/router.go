// edumanage/internal/routes/router.go
package routes

import (
	"edumanage/internal/handlers"
	"edumanage/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every route of the application onto the engine.
func SetupRoutes(r *gin.Engine) {
	// Public routes first: login, signup and the gateway webhook. The
	// webhook authenticates with an HMAC signature, not a session.
	RegisterAuthRoutes(r)
	r.POST("/webhooks/gateway", handlers.GatewayWebhookHandler)

	// Everything else requires a valid token.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
