package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// UserRepository captures the account lookups the auth service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, token string) (persistence.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates sign-in, sign-out, and session validation.
type AuthService struct {
	users          UserRepository
	sessions       SessionRepository
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, sessions SessionRepository, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, sessions, verify, idGenerator, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, sessions SessionRepository, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		verifyPassword: verify,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = mapRepoError(err)
		return
	}

	if verifyErr := s.verifyPassword(user.PasswordHash, params.Password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	issuedAt := s.now()
	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: issuedAt.Add(s.sessionTTL),
		CreatedAt: issuedAt,
	}

	var stored persistence.Session
	stored, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	result = AuthenticateResult{
		User:    User{ID: user.ID, Email: user.Email},
		Session: toApplicationSession(stored),
	}
	return
}

// ValidateSession resolves a session token to the acting principal. Expired
// and revoked sessions are rejected with their own sentinels so callers can
// distinguish "sign in again" from "token unknown".
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("session repository not configured")
	}
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, mapRepoError(err)
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return Principal{}, ErrSessionExpired
	}

	principal := Principal{UserID: session.UserID}
	if s.users != nil {
		user, userErr := s.users.GetUser(ctx, session.UserID)
		if userErr == nil {
			principal.Email = user.Email
		}
	}
	return principal, nil
}

// RevokeSession marks the session token revoked. Revoking an unknown token is
// reported as ErrNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, token string) (err error) {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "RevokeSession")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session revoked")
	}()

	if _, err = s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		err = mapRepoError(err)
	}
	return
}

// DeleteExpiredSessions removes sessions whose expiry has passed. Wired to the
// maintenance scheduler.
func (s *AuthService) DeleteExpiredSessions(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "DeleteExpiredSessions").ErrorContext(ctx, "failed to prune sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// RegisterUser creates an account with a hashed password. Used for seeding
// and operator-driven account creation; there is no public signup surface.
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	email = strings.TrimSpace(strings.ToLower(email))

	logger := s.loggerWith(ctx, "RegisterUser", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	vErr := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "email is invalid")
	}
	if len(password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hash, hashErr := HashPassword(password, DefaultArgon2Params)
	if hashErr != nil {
		err = hashErr
		return
	}

	createdAt := s.now()
	record := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err = s.users.CreateUser(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	user = User{ID: record.ID, Email: record.Email}
	return
}

func toApplicationSession(record persistence.Session) Session {
	return Session{
		ID:        record.ID,
		UserID:    record.UserID,
		Token:     record.Token,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
		RevokedAt: cloneTime(record.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
