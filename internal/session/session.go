// Package session holds the signed-in identity and bearer token of a client process.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/anonto42/discuss/internal/models"
)

// MinPasswordLength is checked before a registration request is sent.
const MinPasswordLength = 6

var (
	ErrNameRequired     = errors.New("name is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// Viewer is who is looking at the discussion: Authenticated or Anonymous.
type Viewer interface {
	isViewer()
}

// Anonymous is a viewer without a session.
type Anonymous struct{}

// Authenticated is a signed-in viewer.
type Authenticated struct {
	ID   uint
	Name string
	Role string
}

func (Anonymous) isViewer()     {}
func (Authenticated) isViewer() {}

// CanDelete reports whether v may delete c: admins may delete anything, users their own comments.
func CanDelete(v Viewer, c models.Comment) bool {
	switch v := v.(type) {
	case Authenticated:
		return v.Role == models.RoleAdmin || v.ID == c.UserID
	case Anonymous:
		return false
	default:
		return false
	}
}

// Authenticator is the part of the comment service the session talks to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthPayload, error)
	Register(ctx context.Context, name, email, password string) (*models.AuthPayload, error)
	Me(ctx context.Context) (*models.User, error)
}

// Session keeps the identity and token in memory. The zero value is not usable; call New.
type Session struct {
	auth Authenticator

	mu    sync.RWMutex
	user  *models.User
	token string
}

// New returns an anonymous session.
func New(auth Authenticator) *Session {
	return &Session{auth: auth}
}

// Token returns the bearer token, or "" when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Viewer returns the current viewer.
func (s *Session) Viewer() Viewer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return Anonymous{}
	}
	return Authenticated{ID: s.user.ID, Name: s.user.Name, Role: s.user.Role}
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	payload, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	s.set(&payload.User, payload.Token)
	return nil
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	payload, err := s.auth.Register(ctx, name, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	s.set(&payload.User, payload.Token)
	return nil
}

// Restore adopts an existing token and loads the user it belongs to. On failure the session stays anonymous.
func (s *Session) Restore(ctx context.Context, token string) error {
	s.set(nil, token)
	user, err := s.auth.Me(ctx)
	if err != nil {
		s.Logout()
		return err
	}
	s.set(user, token)
	return nil
}

// Logout drops identity and token.
func (s *Session) Logout() {
	s.set(nil, "")
}

func (s *Session) set(user *models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
}
