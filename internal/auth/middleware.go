package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/access"
	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

// Context keys for user data
const (
	ContextKeyUserID = logging.UserIDKey
	ContextKeyRole   = "auth_role"
	ContextKeyClaims = "auth_claims"
)

// Middleware authenticates requests carrying a bearer token.
type Middleware struct {
	service     *Service
	logger      logrus.FieldLogger
	publicPaths map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, logger logrus.FieldLogger) *Middleware {
	return &Middleware{
		service: service,
		logger:  logger,
		publicPaths: map[string]bool{
			"/health":         true,
			"/api/auth/login": true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthenticated(c)
			return
		}

		claims, err := m.service.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				m.logger.WithError(apperr.Cause(err)).Error("authentication failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": apperr.KindInternal})
				return
			}
			abortUnauthenticated(c)
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

// RequireRole returns a middleware that requires one of the given roles.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if _, ok := c.Get(ContextKeyClaims); !ok {
			abortUnauthenticated(c)
			return
		}
		if !roleSet[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied",
				"code":  apperr.KindForbidden,
			})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "authentication required",
		"code":  apperr.KindUnauthorized,
	})
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setUserContext(c *gin.Context, claims *Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyRole, claims.Role)
	c.Set(ContextKeyClaims, claims)
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// GetClaims returns the verified token claims, or nil on public routes.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// GetPrincipal returns the authenticated caller. On public routes it is the
// zero Principal, which no policy check accepts.
func GetPrincipal(c *gin.Context) access.Principal {
	if claims := GetClaims(c); claims != nil {
		return claims.Principal()
	}
	return access.Principal{}
}
