// Package auth authenticates API callers and manages their passwords.
//
// A successful login returns an HS256 JWT carrying the caller's user id,
// username, role and member id. Each token also has an id (jti) that is
// recorded in a SessionStore for the lifetime of the token; logging out
// deletes it, so a logged-out token is rejected even though its signature
// still verifies. The store is Redis when REDIS_ADDR is set and in-process
// memory otherwise.
//
// # Configuration
//
//	JWT_SECRET=<secret>            # signing key
//	JWT_EXPIRES_IN=24h             # token lifetime, Go duration or "7d"
//	AUTH_BCRYPT_COST=10            # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5      # failures before a login is locked out
//	REDIS_ADDR=localhost:6379      # optional session store
//
// # Usage
//
//	authService := auth.NewService(userRepo, tokens, sessions, auditService, cfg.Auth, logger)
//	authMiddleware := auth.NewMiddleware(authService, logger)
//	api := router.Group("/api", authMiddleware.Handler())
//	api.POST("/borrow/issue", authMiddleware.RequireRole(entities.UserRoleLibrarian), issue)
//
// Extract the caller in handlers:
//
//	principal := auth.GetPrincipal(c)
package auth
