// edumanage/internal/routes/auth_routes.go
package routes

import (
	"edumanage/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the public authentication routes. These do
// not pass through the token middleware.
func RegisterAuthRoutes(r *gin.Engine) {
	r.POST("/login", handlers.LoginHandler)
	r.GET("/logout", handlers.LogoutHandler)
}
