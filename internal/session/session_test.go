package session

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/discuss/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	user     models.User
	token    string
	err      error
	calls    int
	tokenFor func() string
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*models.AuthPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u := f.user
	u.Email = email
	return &models.AuthPayload{User: u, Token: f.token}, nil
}

func (f *fakeAuth) Register(_ context.Context, name, email, _ string) (*models.AuthPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u := f.user
	u.Name = name
	u.Email = email
	return &models.AuthPayload{User: u, Token: f.token}, nil
}

func (f *fakeAuth) Me(context.Context) (*models.User, error) {
	f.calls++
	if f.tokenFor() != f.token {
		return nil, errors.New("invalid token")
	}
	u := f.user
	return &u, nil
}

func TestCanDelete(t *testing.T) {
	own := models.Comment{ID: 1, UserID: 5}
	other := models.Comment{ID: 2, UserID: 6}

	tests := []struct {
		name   string
		viewer Viewer
		want   map[uint]bool
	}{
		{"anonymous", Anonymous{}, map[uint]bool{1: false, 2: false}},
		{"author", Authenticated{ID: 5, Role: models.RoleUser}, map[uint]bool{1: true, 2: false}},
		{"admin", Authenticated{ID: 9, Role: models.RoleAdmin}, map[uint]bool{1: true, 2: true}},
		{"nil viewer", nil, map[uint]bool{1: false, 2: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want[1], CanDelete(tt.viewer, own))
			assert.Equal(t, tt.want[2], CanDelete(tt.viewer, other))
		})
	}
}

func TestSession_LoginLogout(t *testing.T) {
	auth := &fakeAuth{user: models.User{ID: 5, Name: "alice", Role: models.RoleUser}, token: "tok"}
	s := New(auth)
	assert.Equal(t, Anonymous{}, s.Viewer())
	assert.Empty(t, s.Token())

	require.NoError(t, s.Login(context.Background(), " alice@example.com ", "secret1"))
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, Authenticated{ID: 5, Name: "alice", Role: models.RoleUser}, s.Viewer())

	s.Logout()
	assert.Equal(t, Anonymous{}, s.Viewer())
	assert.Empty(t, s.Token())

	auth.err = errors.New("Invalid email or password")
	assert.Error(t, s.Login(context.Background(), "alice@example.com", "nope"))
	assert.Equal(t, Anonymous{}, s.Viewer())
}

func TestSession_RegisterValidation(t *testing.T) {
	auth := &fakeAuth{user: models.User{ID: 1, Role: models.RoleUser}, token: "tok"}
	s := New(auth)

	assert.ErrorIs(t, s.Register(context.Background(), "  ", "a@example.com", "secret1"), ErrNameRequired)
	assert.ErrorIs(t, s.Register(context.Background(), "alice", "a@example.com", "short"), ErrPasswordTooShort)
	assert.Zero(t, auth.calls)

	require.NoError(t, s.Register(context.Background(), " alice ", "a@example.com", "secret1"))
	v, ok := s.Viewer().(Authenticated)
	require.True(t, ok)
	assert.Equal(t, "alice", v.Name)
}

func TestSession_Restore(t *testing.T) {
	auth := &fakeAuth{user: models.User{ID: 5, Name: "alice", Role: models.RoleAdmin}, token: "good"}
	s := New(auth)
	auth.tokenFor = s.Token

	require.Error(t, s.Restore(context.Background(), "bad"))
	assert.Equal(t, Anonymous{}, s.Viewer())
	assert.Empty(t, s.Token())

	require.NoError(t, s.Restore(context.Background(), "good"))
	assert.Equal(t, "good", s.Token())
	assert.Equal(t, Authenticated{ID: 5, Name: "alice", Role: models.RoleAdmin}, s.Viewer())
}
