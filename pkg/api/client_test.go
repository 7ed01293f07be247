package api_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/testutil"
	"github.com/anonto42/discuss/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClient_RegisterLoginMe(t *testing.T) {
	ctx := context.Background()
	srv := testutil.NewServer(t)
	client := api.New(srv.URL)

	payload, err := client.Register(ctx, "Alice", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)
	assert.Equal(t, "alice@example.com", payload.User.Email)
	assert.Equal(t, models.RoleUser, payload.User.Role)

	_, err = client.Register(ctx, "Alice", "alice@example.com", "secret1")
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	_, err = client.Login(ctx, "alice@example.com", "wrong-password")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	login, err := client.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	me, err := api.New(srv.URL).UseTokens(staticToken(login.Token)).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, me.ID)
}

func TestClient_RegisterAdmin(t *testing.T) {
	srv := testutil.NewServer(t)
	payload, err := api.New(srv.URL).Register(context.Background(), "Root", testutil.AdminEmail, "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, payload.User.Role)
}

func TestClient_CommentLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := testutil.NewServer(t)
	alice, token := srv.CreateUser(t, "alice", "alice@example.com")
	client := api.New(srv.URL).UseTokens(staticToken(token))

	created, err := client.CreateComment(ctx, "  hello world  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", created.Text)
	assert.Nil(t, created.ParentID)
	require.NotNil(t, created.Author)
	assert.Equal(t, alice.ID, created.Author.ID)

	reply, err := client.CreateComment(ctx, "a reply", &created.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, created.ID, *reply.ParentID)

	list, err := client.ListComments(ctx, models.SortTop)
	require.NoError(t, err)
	require.Len(t, list.Comments, 1)
	require.NotNil(t, list.Comments[0].ReplyCount)
	assert.Equal(t, 1, *list.Comments[0].ReplyCount)
	require.NotNil(t, list.CurrentUser)
	assert.Equal(t, alice.ID, list.CurrentUser.ID)

	detail, err := client.GetComment(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Replies, 1)
	assert.Equal(t, reply.ID, detail.Replies[0].ID)

	n, err := client.UpvoteComment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = client.UpvoteComment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, client.DeleteComment(ctx, created.ID))
	_, err = client.GetComment(ctx, reply.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)

	list, err = client.ListComments(ctx, models.SortNew)
	require.NoError(t, err)
	assert.Empty(t, list.Comments)
}

func TestClient_AnonymousReads(t *testing.T) {
	ctx := context.Background()
	srv := testutil.NewServer(t)
	_, token := srv.CreateUser(t, "alice", "alice@example.com")
	_, err := api.New(srv.URL).UseTokens(staticToken(token)).CreateComment(ctx, "hello", nil)
	require.NoError(t, err)

	anon := api.New(srv.URL)
	list, err := anon.ListComments(ctx, models.SortTop)
	require.NoError(t, err)
	assert.Len(t, list.Comments, 1)
	assert.Nil(t, list.CurrentUser)

	_, err = anon.CreateComment(ctx, "nope", nil)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	srv := testutil.NewServer(t)
	_, token := srv.CreateUser(t, "alice", "alice@example.com")
	client := api.New(srv.URL).UseTokens(staticToken(token))

	_, err := client.GetComment(ctx, 404)
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = client.UpvoteComment(ctx, 404)
	assert.ErrorIs(t, err, api.ErrNotFound)

	missing := uint(404)
	_, err = client.CreateComment(ctx, "reply", &missing)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Parent comment not found", apiErr.Message)

	_, err = client.CreateComment(ctx, "   ", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Comment text cannot be empty", apiErr.Message)

	_, err = client.ListComments(ctx, models.SortMode("old"))
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestClient_TransportError(t *testing.T) {
	client := api.New("http://127.0.0.1:1/api")
	_, err := client.ListComments(context.Background(), models.SortTop)
	require.Error(t, err)

	var transportErr *api.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.False(t, errors.Is(err, api.ErrNotFound))
}
