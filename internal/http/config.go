package http

import (
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/maintenance"
	"github.com/mrlokans/library/internal/membership"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Logger  logrus.FieldLogger
	Version string

	// Core services
	Catalog    *catalog.Service
	Membership *membership.Service
	Lending    *lending.Service
	Audit      *audit.Service

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter

	// Health checks
	Database Pinger

	// Read-only mode (optional)
	Maintenance *maintenance.Middleware

	// Task queue (optional)
	TaskQueue TaskQueue

	CORSAllowedOrigin string
}
