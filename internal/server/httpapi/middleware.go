package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/server/auth"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

// bearerToken extracts the token from "Bearer <t>" or "Token <t>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, common.BearerScheme) && !strings.EqualFold(scheme, common.TokenScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate resolves the access token to an active user. On failure it
// aborts with 401 and returns false.
func (s *HTTPServer) authenticate(c *gin.Context) (*models.User, bool) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgNoCredentials})
		return nil, false
	}

	token, ok := bearerToken(header)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgInvalidToken})
		return nil, false
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		msg := msgInvalidToken
		if errors.Is(err, common.ErrTokenExpired) {
			msg = msgExpiredToken
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msg})
		return nil, false
	}

	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgInactiveUser})
			return nil, false
		}
		s.writeError(c, err)
		c.Abort()
		return nil, false
	}
	if !user.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgInactiveUser})
		return nil, false
	}
	return user, true
}

// authRequired stores the authenticated user in the gin context.
func (s *HTTPServer) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.authenticate(c)
		if !ok {
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// protectedPrefixes are the route groups behind authRequired.
var protectedPrefixes = []string{"/api/user/me", "/api/recipe/"}

func isProtected(path string) bool {
	for _, p := range protectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
