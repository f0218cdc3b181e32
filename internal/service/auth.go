package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/galleryapp/gallery-server/internal/auth"
	"github.com/galleryapp/gallery-server/internal/domain"
	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
	"github.com/galleryapp/gallery-server/internal/id"
	"github.com/galleryapp/gallery-server/internal/store"
	"github.com/galleryapp/gallery-server/internal/util"
)

// Messages shown to users after auth actions.
const (
	MsgPasswordMismatch = "Password doesn't match"
	MsgUsernameTaken    = "Username already exists."
	MsgAccountCreated   = "Account Created Successfully!"
	MsgLoggedIn         = "Logged In Successfully!"
	MsgLoggedOut        = "Logged Out Successfully!"
)

// sessionTouchInterval throttles LastSeenAt writes.
const sessionTouchInterval = time.Minute

// AuthService handles signup, login, logout and session authentication.
type AuthService struct {
	store           store.Store
	tokenService    *auth.TokenService
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionDuration time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:           store,
		tokenService:    tokenService,
		sessionDuration: sessionDuration,
		logger:          orDiscard(logger),
	}
}

// SignupRequest is the signup form.
type SignupRequest struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password  string `form:"password" validate:"required,max=1024"`
	Password2 string `form:"password2"`
}

// Signup creates a regular account.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Password != req.Password2 {
		return nil, domainerrors.Validation(MsgPasswordMismatch)
	}
	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, domainerrors.AlreadyExists(MsgUsernameTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, req.Username, req.Email, req.Password, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string, superuser bool) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsSuperuser:  superuser,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists(MsgUsernameTaken).WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// LoginRequest carries credentials plus the client details recorded on the
// session.
type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is a started session and the cookie token naming it.
type LoginResult struct {
	User    *domain.User
	Session *domain.Session
	Token   string
}

// Login verifies credentials and starts a session. Every failure is the same
// InvalidCredentials error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	invalid := domainerrors.InvalidCredentials("invalid username or password")

	if req.Username == "" || req.Password == "" {
		return nil, invalid
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", "username", req.Username, "ip", req.IPAddress)
		return nil, invalid
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:          sessionID,
		UserID:      user.ID,
		ExpiresAt:   now.Add(s.sessionDuration),
		CreatedAt:   now,
		LastSeenAt:  now,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		DeviceClass: util.DeviceClass(req.UserAgent),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if err := s.store.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = now

	s.logger.Info("user logged in",
		"user_id", user.ID,
		"session_id", session.ID,
		"device", session.DeviceClass,
	)

	return &LoginResult{
		User:    user,
		Session: session,
		Token:   s.tokenService.Seal(session),
	}, nil
}

// Logout ends the session named by token. Missing or invalid tokens are
// ignored: logging out always succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokenService.Open(token, time.Now())
	if err != nil {
		return nil //nolint:nilerr // an unreadable cookie has no session to end
	}
	if err := s.store.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("user logged out", "user_id", claims.UserID, "session_id", claims.SessionID)
	return nil
}

// Authenticate resolves a cookie token to its live session and user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	now := time.Now().UTC()

	claims, err := s.tokenService.Open(token, now)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid session").WithCause(err)
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("session ended")
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired(now) {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, nil, domainerrors.Unauthorized("session expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, domainerrors.Unauthorized("account disabled")
	}

	if now.Sub(session.LastSeenAt) >= sessionTouchInterval {
		if err := s.store.TouchSession(ctx, session.ID, now); err != nil {
			s.logger.Debug("failed to touch session", "session_id", session.ID, "error", err)
		} else {
			session.LastSeenAt = now
		}
	}

	return user, session, nil
}

// BootstrapAdmin creates a superuser unless the username is already taken.
// It reports whether a user was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("check admin: %w", err)
	}

	user, err := s.createUser(ctx, username, email, password, true)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("administrator created", "user_id", user.ID, "username", user.Username)
	return true, nil
}

// CleanupExpiredSessions deletes every session past its expiry.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx, time.Now().UTC())
}
