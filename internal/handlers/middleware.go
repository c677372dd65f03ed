package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// AUTH MIDDLEWARE
// ==============================================

const userContextKey = "current_user"

// SessionValidator resolves a bearer token to its live user.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth validates the Authorization bearer token and stores the user in
// the request context. The account gate (ban/restriction) runs on every
// request, so revoking access takes effect immediately.
func RequireAuth(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, "Authentication required",
				errors.New("missing bearer token"))
			c.Abort()
			return
		}

		user, err := sessions.ValidateSession(c.Request.Context(), token)
		if err != nil {
			respondServiceError(c, err)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			respondError(c, http.StatusForbidden, "Admin access required",
				errors.New("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
