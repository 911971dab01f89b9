package http

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/auth"
)

// AuthController exposes login, logout and the current principal.
type AuthController struct {
	service     *auth.Service
	rateLimiter *auth.RateLimiter
}

// NewAuthController creates an AuthController. rateLimiter may be nil.
func NewAuthController(service *auth.Service, rateLimiter *auth.RateLimiter) *AuthController {
	return &AuthController{service: service, rateLimiter: rateLimiter}
}

type loginRequest struct {
	Username string `json:"username" binding:"required" label:"Username"`
	Password string `json:"password" binding:"required" label:"Password"`
}

// Login handles POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	clientIP := c.ClientIP()
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username); !allowed {
			respondTooManyAttempts(c, retryAfter.Seconds())
			return
		}
	}

	result, err := ac.service.Login(c.Request.Context(), req.Username, req.Password, clientInfo(c))
	if err != nil {
		if ac.rateLimiter != nil && apperr.KindOf(err) == apperr.KindUnauthorized {
			ac.rateLimiter.RecordFailure(clientIP, username)
		}
		respondError(c, err, http.StatusConflict)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, username)
	}
	c.JSON(http.StatusOK, result)
}

// Logout handles POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	claims := auth.GetClaims(c)
	if claims == nil {
		respondError(c, apperr.Unauthorized("authentication required"), http.StatusConflict)
		return
	}

	if err := ac.service.Logout(c.Request.Context(), claims, clientInfo(c)); err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.Me(c.Request.Context(), auth.GetPrincipal(c))
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, user)
}

func respondTooManyAttempts(c *gin.Context, seconds float64) {
	c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(seconds))))
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error: "Too many login attempts. Please try again later.",
		Code:  "RATE_LIMITED",
	})
}

func clientInfo(c *gin.Context) auth.ClientInfo {
	return auth.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
