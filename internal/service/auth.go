// Package service wires stores, validation, and rendering into the
// operations the application exposes.
package service

import (
	stderrors "errors"
	"log/slog"

	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/errors"
	"github.com/rosterapp/roster/internal/ratelimit"
	"github.com/rosterapp/roster/internal/store"
	"github.com/rosterapp/roster/internal/validation"
)

// ErrThrottled marks a login attempt rejected by the rate limiter. Like the
// store's causes it travels wrapped inside the generic credentials error.
var ErrThrottled = stderrors.New("login throttled")

// LoginRequest carries one authentication attempt.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries one account registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100,excludes=:"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthService authenticates and registers users on top of the credential
// store, adding request validation and per-username throttling.
type AuthService struct {
	users     *store.UserStore
	throttle  *ratelimit.LoginThrottle
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(users *store.UserStore, throttle *ratelimit.LoginThrottle, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		throttle:  throttle,
		validator: validator,
		logger:    logger,
	}
}

// Login authenticates a user.
//
// The returned error never says whether the username exists, the secret was
// wrong, or the attempt was throttled. The log line carries the precise
// cause so operators can tell probing from typos.
func (s *AuthService) Login(req LoginRequest) (*domain.Credential, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	if !s.throttle.Allow(req.Username) {
		s.logger.Warn("login rejected", "username", req.Username, "reason", "throttled")
		return nil, errors.ErrInvalidCredentials.WithCause(ErrThrottled)
	}

	cred, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("login failed", "username", req.Username, "reason", loginFailureReason(err))
		return nil, err
	}

	s.logger.Info("login succeeded", "username", cred.Username)
	return cred, nil
}

// Register creates a new account.
func (s *AuthService) Register(req RegisterRequest) error {
	if err := s.validator.Validate(&req); err != nil {
		return err
	}

	if err := s.users.Register(req.Username, req.Password); err != nil {
		s.logger.Warn("registration failed", "username", req.Username, "error", err)
		return err
	}

	s.logger.Info("registration succeeded", "username", req.Username)
	return nil
}

// loginFailureReason names the internal cause of an authentication failure
// for logging. The caller-facing error stays generic.
func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return "unknown user"
	case errors.Is(err, store.ErrSecretMismatch):
		return "wrong secret"
	case errors.Is(err, store.ErrMissingCredentials):
		return "missing credentials"
	case errors.Is(err, errors.ErrDataAccess):
		return "credential store unavailable"
	default:
		return "unknown"
	}
}
