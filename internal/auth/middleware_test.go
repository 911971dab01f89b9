package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	env := setupService(t)
	m := NewMiddleware(env.service, logging.Discard())

	router := gin.New()
	router.Use(m.Handler())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/whoami", func(c *gin.Context) {
		p := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"userId": p.UserID, "role": p.Role, "memberId": p.MemberID})
	})
	router.POST("/api/librarian-only", m.RequireRole(entities.UserRoleLibrarian), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, env
}

func loginToken(t *testing.T, env *testEnv, username, password string) string {
	t.Helper()
	result, err := env.service.Login(context.Background(), username, password, ClientInfo{})
	require.NoError(t, err)
	return result.Token
}

func TestMiddleware_PublicPaths(t *testing.T) {
	router, _ := setupRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/health"},
		{http.MethodPost, "/api/auth/login"},
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, tc.path)
	}
}

func TestMiddleware_RequiresToken(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic YWRtaW46YWRtaW4xMjM="},
		{"empty bearer", "Bearer "},
		{"invalid token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"authentication required","code":"UNAUTHORIZED"}`, rr.Body.String())
		})
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	router, env := setupRouter(t)
	_, err := env.service.CreateLibrarian(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	token := loginToken(t, env, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"LIBRARIAN"`)
}

func TestMiddleware_LoggedOutToken(t *testing.T) {
	router, env := setupRouter(t)
	ctx := context.Background()
	_, err := env.service.CreateLibrarian(ctx, "admin", "admin123")
	require.NoError(t, err)
	token := loginToken(t, env, "admin", "admin123")

	claims, err := env.service.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NoError(t, env.service.Logout(ctx, claims, ClientInfo{}))

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddleware_RequireRole(t *testing.T) {
	router, env := setupRouter(t)
	ctx := context.Background()

	_, err := env.service.CreateLibrarian(ctx, "admin", "admin123")
	require.NoError(t, err)

	hash, err := HashPassword("member123", 4)
	require.NoError(t, err)
	member := entities.Member{Name: "Alice", Email: "alice@example.com", Phone: "5550100", MembershipDate: entities.Today()}
	require.NoError(t, env.db.Create(&member).Error)
	require.NoError(t, env.db.Create(&entities.User{
		Username: "alice@example.com", PasswordHash: hash,
		Role: entities.UserRoleMember, MemberID: &member.ID,
	}).Error)

	t.Run("librarian passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/librarian-only", nil)
		req.Header.Set("Authorization", "Bearer "+loginToken(t, env, "admin", "admin123"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/librarian-only", nil)
		req.Header.Set("Authorization", "Bearer "+loginToken(t, env, "alice@example.com", "member123"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"error":"Access denied","code":"FORBIDDEN"}`, rr.Body.String())
	})

	t.Run("member principal carries the member id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+loginToken(t, env, "alice@example.com", "member123"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"role":"MEMBER"`)
		assert.Contains(t, rr.Body.String(), `"memberId":`)
		assert.NotContains(t, rr.Body.String(), `"memberId":null`)
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("BEARER abc"))
	assert.Equal(t, "", bearerToken("Token abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Contains(t, rr.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
