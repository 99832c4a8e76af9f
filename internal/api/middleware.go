package api

import (
	"alcyxob/strength-academy/internal/domain" // For domain.Role
	"alcyxob/strength-academy/internal/ratelimit"
	"alcyxob/strength-academy/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := authService.ParseToken(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil || claims.Role == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID) // hex
		c.Set(ContextUserRoleKey, claims.Role)
		c.Next()
	}
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, err := getUserRoleFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

// RateLimitMiddleware throttles requests per authenticated user, falling back
// to the client IP before authentication has run.
func RateLimitMiddleware(store *ratelimit.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, err := getUserIDFromContext(c); err == nil {
			key = "user:" + userID
		}
		if !store.Allow(key, time.Now()) {
			logger.Warn("rate limit exceeded", zap.String("key", key), zap.String("path", c.FullPath()))
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, err := getUserIDFromContext(c); err == nil {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// currentUserID resolves the caller's ObjectID, aborting with 401 when it is
// missing.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// Helper function to get User Role from context (used by handlers)
func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
