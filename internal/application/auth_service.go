package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// AuthService owns registration, login and the session lifecycle.
type AuthService struct {
	users       UserRepository
	provider    CredentialProvider
	sessions    SessionRepository
	tokens      TokenIssuer
	idGenerator func() string
	now         func() time.Time
	sessionTTL  time.Duration
	options     serviceOptions
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, provider CredentialProvider, sessions SessionRepository, tokens TokenIssuer, idGenerator func() string, now func() time.Time, sessionTTL time.Duration, opts ...ServiceOption) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:       users,
		provider:    provider,
		sessions:    sessions,
		tokens:      tokens,
		idGenerator: idGenerator,
		now:         now,
		sessionTTL:  sessionTTL,
		options:     newServiceOptions(opts),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.options.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.users == nil || s.provider == nil || s.sessions == nil || s.tokens == nil {
		return fmt.Errorf("auth service dependencies not configured")
	}
	return nil
}

// Register validates the input, creates the credential and persists the
// profile. If the profile cannot be written the credential is removed again.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		logOutcome(ctx, logger, err, "registration", "user_id", user.ID, "role", user.Role)
	}()

	role, vErr := validateRegistration(email, params)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	displayName := strings.TrimSpace(params.DisplayName)

	var userID string
	userID, err = s.providerCall(ctx, func(ctx context.Context) (string, error) {
		return s.provider.CreateUser(ctx, email, params.Password, displayName)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, providerError(err)
	}

	now := s.now()
	profile := User{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		Phone:       strings.TrimSpace(params.Phone),
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	user, err = s.users.CreateUser(storeCtx, profile)
	cancel()
	if err != nil {
		if _, cErr := s.providerCall(ctx, func(ctx context.Context) (string, error) {
			return "", s.provider.DeleteUser(ctx, userID)
		}); cErr != nil {
			logger.ErrorContext(ctx, "failed to roll back credential", "error", cErr, "user_id", userID)
		}
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, storeError(err)
	}

	return user, nil
}

func validateRegistration(email string, params RegisterParams) (Role, *ValidationError) {
	vErr := &ValidationError{}

	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if params.Password == "" {
		vErr.add("password", "password is required")
	} else if len(params.Password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	if strings.TrimSpace(params.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	if strings.TrimSpace(params.Phone) == "" {
		vErr.add("phone", "phone is required")
	}

	role, ok := ParseRole(params.Role)
	if !ok {
		vErr.add("role", "role must be professional or client")
	}

	return role, vErr
}

// Login verifies credentials and issues a new session.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if err = s.ready(); err != nil {
		return LoginResult{}, err
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		logOutcome(ctx, logger, err, "login", "user_id", result.User.ID, "session_id", result.Session.ID)
	}()

	if email == "" || params.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	var userID string
	userID, err = s.providerCall(ctx, func(ctx context.Context) (string, error) {
		return s.provider.GetUserByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, providerError(err)
	}

	if _, err = s.providerCall(ctx, func(ctx context.Context) (string, error) {
		return "", s.provider.VerifyPassword(ctx, userID, params.Password)
	}); err != nil {
		return LoginResult{}, providerError(err)
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	var user User
	user, err = s.users.GetUser(storeCtx, userID)
	if err != nil {
		return LoginResult{}, storeError(err)
	}

	now := s.now()
	if pruneErr := s.sessions.DeleteExpiredSessions(storeCtx, now); pruneErr != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", pruneErr)
	}

	session := Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	var token string
	token, err = s.issue(session)
	if err != nil {
		return LoginResult{}, err
	}

	session, err = s.sessions.CreateSession(storeCtx, session)
	if err != nil {
		return LoginResult{}, storeError(err)
	}
	session.Token = token

	return LoginResult{User: user, Session: session}, nil
}

// Logout revokes the session referenced by token. Unknown, malformed,
// expired and already revoked tokens all succeed.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "Logout")

	claims, err := s.tokens.Inspect(strings.TrimSpace(token))
	if err != nil {
		logger.InfoContext(ctx, "logout with unrecognised token ignored", "error_kind", ErrorKind(err))
		return nil
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	now := s.now()
	if _, err := s.sessions.RevokeSession(storeCtx, claims.SessionID, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "logout for unknown session ignored", "session_id", claims.SessionID)
			return nil
		}
		err = storeError(err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(storeCtx, now); err != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", err)
	}
	logger.InfoContext(ctx, "session revoked", "session_id", claims.SessionID, "user_id", claims.UserID)
	return nil
}

// ValidateSession verifies that token refers to a live session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return Principal{}, err
	}

	logger := s.loggerWith(ctx, "ValidateSession")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "session validated", "principal_id", principal.UserID)
	}()

	var session Session
	session, err = s.liveSession(ctx, token)
	if err != nil {
		return Principal{}, err
	}

	return Principal{UserID: session.UserID, Role: session.Role, SessionID: session.ID}, nil
}

// CurrentUser returns the profile of the user owning token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (User, error) {
	principal, err := s.ValidateSession(ctx, token)
	if err != nil {
		return User{}, err
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	user, err := s.users.GetUser(storeCtx, principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, storeError(err)
	}
	return user, nil
}

// RefreshSession extends a live session and returns it with a newly signed token.
func (s *AuthService) RefreshSession(ctx context.Context, token string) (session Session, err error) {
	if err = s.ready(); err != nil {
		return Session{}, err
	}

	logger := s.loggerWith(ctx, "RefreshSession")
	defer func() {
		logOutcome(ctx, logger, err, "session refresh", "session_id", session.ID, "user_id", session.UserID)
	}()

	session, err = s.liveSession(ctx, token)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)

	var signed string
	signed, err = s.issue(session)
	if err != nil {
		return Session{}, err
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	session, err = s.sessions.UpdateSession(storeCtx, session)
	if err != nil {
		return Session{}, storeError(err)
	}
	session.Token = signed
	return session, nil
}

func (s *AuthService) liveSession(ctx context.Context, token string) (Session, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Session{}, ErrUnauthorized
	}

	claims, err := s.tokens.Parse(trimmed)
	if err != nil {
		return Session{}, err
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	session, err := s.sessions.GetSession(storeCtx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, storeError(err)
	}

	if session.UserID != claims.UserID {
		return Session{}, ErrUnauthorized
	}
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

func (s *AuthService) issue(session Session) (string, error) {
	token, err := s.tokens.Issue(SessionClaims{
		SessionID: session.ID,
		UserID:    session.UserID,
		Role:      session.Role,
		IssuedAt:  session.UpdatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// providerCall runs fn under the store deadline so a hung provider surfaces
// ErrAuthProvider instead of blocking the caller.
func (s *AuthService) providerCall(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	callCtx, cancel := s.options.storeContext(ctx)
	defer cancel()
	return fn(callCtx)
}
