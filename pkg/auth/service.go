package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minPasswordLength = 6

// Session is handed out on login. Token must accompany later calls.
type Session struct {
	Token     string       `json:"token"`
	User      *domain.User `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Option func(*Service)

// WithClock replaces time.Now for token issue and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service registers users and tracks their sessions. One user holds at most
// one session; logging in again replaces the previous one.
type Service struct {
	users  domain.UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]string // user id -> session id
}

func NewService(users domain.UserStore, secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session lifetime must be positive")
	}

	s := &Service{
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HashPassword returns the base64 SHA-256 digest stored for a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrEmptyName
	}
	email = domain.NormalizeEmail(email)
	if !domain.IsValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if password == "" {
		return nil, domain.ErrEmptyPassword
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailTaken, email)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: HashPassword(password),
	}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks the credentials and starts a new session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email = domain.NormalizeEmail(email)
	if !domain.IsValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if password == "" {
		return nil, domain.ErrEmptyPassword
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	digest := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(user.PasswordHash)) != 1 {
		return nil, domain.ErrPasswordMismatch
	}

	return s.startSession(user)
}

func (s *Service) startSession(user *domain.User) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	sessionID := uuid.New().String()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.mu.Lock()
	s.sessions[user.ID] = sessionID
	s.mu.Unlock()

	return &Session{Token: signed, User: user, ExpiresAt: expiresAt}, nil
}

// Verify resolves a token of a live session.
func (s *Service) Verify(token string) (*UserContext, error) {
	if token == "" {
		return nil, domain.ErrNoSession
	}

	c, err := s.parse(token, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoSession, err)
	}

	s.mu.Lock()
	active, ok := s.sessions[c.Subject]
	s.mu.Unlock()
	if !ok || active != c.ID {
		return nil, domain.ErrNoSession
	}

	return &UserContext{UserID: c.Subject, Email: c.Email, SessionID: c.ID}, nil
}

// CurrentUser returns the user owning the session.
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	userCtx, err := s.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, userCtx.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		s.Revoke(userCtx.UserID)
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout ends the session carried by token. Unknown, expired or malformed
// tokens are ignored.
func (s *Service) Logout(token string) {
	c, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[c.Subject] == c.ID {
		delete(s.sessions, c.Subject)
	}
}

// Revoke ends whatever session userID holds.
func (s *Service) Revoke(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

func (s *Service) parse(token string, opts ...jwt.ParserOption) (*claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return &c, nil
}
