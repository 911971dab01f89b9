package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/access"
	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

// UsernameRules are the validator tags a login name must satisfy.
const UsernameRules = "min=3,max=64,username"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", isUsername); err != nil {
		panic(err)
	}
	return v
}

// isUsername accepts letters, digits and any of "_.@-".
func isUsername(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_.@-", r):
		default:
			return false
		}
	}
	return true
}

var (
	errInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	errAuthRequired       = apperr.Unauthorized("authentication required")
)

// AuditLogger receives authentication events.
type AuditLogger interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, success bool)
}

// ClientInfo describes where a request came from, for the audit trail.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      access.Principal `json:"user"`
}

// Service handles logins, token sessions and password management.
type Service struct {
	users      *users.Repository
	tokens     *TokenIssuer
	sessions   SessionStore
	audit      AuditLogger
	bcryptCost int
	logger     logrus.FieldLogger
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, tokens *TokenIssuer, sessions SessionStore, audit AuditLogger, cfg config.Auth, logger logrus.FieldLogger) *Service {
	return &Service{
		users:      repo,
		tokens:     tokens,
		sessions:   sessions,
		audit:      audit,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Login checks credentials and issues a token backed by a new session.
func (s *Service) Login(ctx context.Context, username, password string, client ClientInfo) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return nil, apperr.Validation("Username is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.Validation("Password is required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			s.audit.LogAuth(0, "login_failed", client.IP, client.UserAgent, false)
			return nil, errInvalidCredentials
		}
		return nil, apperr.Internal(err, "failed to find user")
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.audit.LogAuth(user.ID, "login_failed", client.IP, client.UserAgent, false)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, errInvalidCredentials
		}
		return nil, apperr.Internal(err, "failed to check password")
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}
	if err := s.sessions.Save(ctx, claims.ID, user.ID, s.tokens.TTL()); err != nil {
		return nil, apperr.Internal(err, "failed to save session")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	}
	s.audit.LogAuth(user.ID, "login", client.IP, client.UserAgent, true)

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      access.PrincipalFromUser(user),
	}, nil
}

// Authenticate verifies a bearer token and that its session is still live.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, errAuthRequired
	}

	live, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check session")
	}
	if !live {
		return nil, errAuthRequired
	}
	return claims, nil
}

// Logout ends the session a token belongs to.
func (s *Service) Logout(ctx context.Context, claims *Claims, client ClientInfo) error {
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return apperr.Internal(err, "failed to end session")
	}
	s.audit.LogAuth(claims.UserID, "logout", client.IP, client.UserAgent, true)
	return nil
}

// Me returns the stored credential of the caller.
func (s *Service) Me(ctx context.Context, p access.Principal) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, errAuthRequired
		}
		return nil, apperr.Internal(err, "failed to fetch user")
	}
	return user, nil
}

// ChangePassword replaces the caller's own password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, p access.Principal, current, next string) error {
	if current == "" {
		return apperr.Validation("Current password required")
	}

	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err, "failed to fetch user")
	}

	if err := CheckPassword(current, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return apperr.Validation("Current password is incorrect")
		}
		return apperr.Internal(err, "failed to check password")
	}

	if err := s.setPassword(ctx, user.ID, next); err != nil {
		return err
	}
	s.audit.LogAuth(user.ID, "password_change", "", "", true)
	return nil
}

// ResetPassword sets another user's password and ends all of their sessions.
func (s *Service) ResetPassword(ctx context.Context, p access.Principal, userID uint, next string) error {
	if err := access.RequireLibrarian(p); err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err, "failed to fetch user")
	}

	if err := s.setPassword(ctx, userID, next); err != nil {
		return err
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to revoke sessions after password reset")
	}
	s.audit.LogAuth(p.UserID, "password_reset", "", "", true)
	return nil
}

// SetPasswordByUsername is the operator path used by the CLI: it sets a
// password without a calling principal and ends the user's sessions.
func (s *Service) SetPasswordByUsername(ctx context.Context, username, password string) error {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err, "failed to fetch user")
	}

	if err := s.setPassword(ctx, user.ID, password); err != nil {
		return err
	}
	if err := s.sessions.RevokeUser(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("failed to revoke sessions after password reset")
	}
	s.audit.LogAuth(0, "password_reset", "cli", "", true)
	return nil
}

// CreateLibrarian adds a LIBRARIAN login.
func (s *Service) CreateLibrarian(ctx context.Context, username, password string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := validate.Var(username, UsernameRules); err != nil {
		return nil, apperr.Validation("Username must be 3-64 characters: letters, digits, '_', '-', '.', '@'")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, PasswordError(err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: hash,
		Role:         entities.UserRoleLibrarian,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrUserExists) {
			return nil, apperr.Validation("Username already exists")
		}
		return nil, apperr.Internal(err, "failed to create user")
	}
	return user, nil
}

// EnsureAdmin creates the initial librarian unless a librarian with that
// username already exists. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.users.FindLibrarian(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, users.ErrUserNotFound) {
		return false, apperr.Internal(err, "failed to look up admin")
	}

	if _, err := s.CreateLibrarian(ctx, username, password); err != nil {
		return false, err
	}
	s.logger.WithField("username", username).Info("created admin user")
	return true, nil
}

func (s *Service) setPassword(ctx context.Context, userID uint, password string) error {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return PasswordError(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err, "failed to update password")
	}
	return nil
}
