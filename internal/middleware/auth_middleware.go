// edumanage/internal/middleware/auth_middleware.go
package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"edumanage/config"
	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// CachedUserData is the single cache shape for everything the middleware
// needs about a user.
type CachedUserData struct {
	UserID       uint     `json:"user_id"`
	Login        string   `json:"login"`
	Roles        []string `json:"roles"`
	Permissions  []string `json:"permissions"`
	IsSuperAdmin bool     `json:"is_super_admin"`
	IsStaff      bool     `json:"is_staff"`
}

// AuthMiddleware authenticates the request from a JWT (cookie or bearer
// header), loading the user's roles and permissions from Redis when
// available, the database otherwise.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})
		if err != nil || !token.Valid {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Invalid token claims")
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			handleAuthError(c, "Invalid user ID format in token")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := fmt.Sprintf("user:%d:data", userID)
		if config.RDB != nil {
			cachedData, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var userData CachedUserData
				if json.Unmarshal([]byte(cachedData), &userData) == nil {
					setContextAndProceed(c, &userData)
					return
				}
				slog.Warn("Failed to unmarshal cached user data", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("Redis GET command failed", "error", err, "user_id", userID)
			}
		}

		var dbUser models.User
		if err := config.DB.Preload("Roles.Permissions").First(&dbUser, userID).Error; err != nil {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "User from token not found")
			return
		}

		var roleNames []string
		permissionSet := make(map[string]bool)
		for _, role := range dbUser.Roles {
			roleNames = append(roleNames, role.Name)
			for _, permission := range role.Permissions {
				permissionSet[permission.Name] = true
			}
		}
		permissionsList := make([]string, 0, len(permissionSet))
		for name := range permissionSet {
			permissionsList = append(permissionsList, name)
		}
		if dbUser.IsSuperAdmin {
			permissionsList = append(permissionsList, "admin")
		}

		userData := CachedUserData{
			UserID:       dbUser.ID,
			Login:        dbUser.Login,
			Roles:        roleNames,
			Permissions:  permissionsList,
			IsSuperAdmin: dbUser.IsSuperAdmin,
			IsStaff:      dbUser.IsStaff,
		}

		if config.RDB != nil {
			jsonData, err := json.Marshal(userData)
			if err != nil {
				slog.Error("Failed to marshal user data for caching", "error", err, "user_id", userID)
			} else if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, 10*time.Minute).Err(); err != nil {
				slog.Error("Failed to SET user data to cache", "error", err, "user_id", userID)
			}
		}

		setContextAndProceed(c, &userData)
	}
}

func setContextAndProceed(c *gin.Context, userData *CachedUserData) {
	c.Set("user_id", userData.UserID)
	c.Set("login", userData.Login)
	c.Set("roles", userData.Roles)
	c.Set("permissions", userData.Permissions)
	c.Set("is_super_admin", userData.IsSuperAdmin)
	c.Set("is_staff", userData.IsStaff)
	c.Next()
}

// Identity assembles the ledger caller identity from the request context.
// The zero identity (unauthenticated) makes every tenant resolution fail
// with Unauthorized.
func Identity(c *gin.Context) ledger.Identity {
	identity := ledger.Identity{}
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			identity.UserID = id
		}
	}
	if v, ok := c.Get("is_super_admin"); ok {
		if b, ok := v.(bool); ok {
			identity.IsSuperAdmin = b
		}
	}
	if v, ok := c.Get("is_staff"); ok {
		if b, ok := v.(bool); ok {
			identity.IsStaff = b
		}
	}
	return identity
}

// PermissionMiddleware gates a route behind one named permission. The admin
// role bypasses individual checks.
func PermissionMiddleware(requiredPermission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if roles, exists := c.Get("roles"); exists {
			if userRoles, ok := roles.([]string); ok {
				for _, roleName := range userRoles {
					if roleName == "admin" {
						c.Next()
						return
					}
				}
			}
		}
		if isSuper, exists := c.Get("is_super_admin"); exists {
			if b, ok := isSuper.(bool); ok && b {
				c.Next()
				return
			}
		}

		permissions, exists := c.Get("permissions")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Permissions not found in context"})
			c.Abort()
			return
		}
		userPermissions, ok := permissions.([]string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Internal permission format error"})
			c.Abort()
			return
		}
		for _, permissionName := range userPermissions {
			if permissionName == requiredPermission {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		c.Abort()
	}
}

func handleAuthError(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}
