package middleware

import (
	"context"
	"net/http"
	"strings"

	"network20-backend/internal/delivery/http/response"
	"network20-backend/internal/domain"
	"network20-backend/pkg/auth"
	"network20-backend/pkg/logger"
	"network20-backend/pkg/supabase"

	"github.com/gin-gonic/gin"
)

// TokenVerifier checks a bearer access token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// OptionalAuth lets anonymous requests through. A request that does carry
// a bearer token must carry a valid one; its identity is attached to the
// request context so remote calls run as that user. A nil verifier means
// there is no hosted backend and tokens are ignored.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || verifier == nil {
			c.Next()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Log.Info("token validation failed", "request_id", c.GetString(RequestIDKey), "error", err)
			response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}

		session := &supabase.Session{
			AccessToken: token,
			TokenType:   "bearer",
			User: supabase.User{
				ID:           claims.Subject,
				Email:        claims.Email,
				UserMetadata: claims.UserMetadata,
			},
		}
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Unix()
		}

		c.Set(string(domain.KeyUserID), claims.Subject)
		c.Set(string(domain.KeyUserEmail), claims.Email)

		ctx := supabase.WithSession(c.Request.Context(), session)
		ctx = context.WithValue(ctx, domain.KeyUserID, claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
