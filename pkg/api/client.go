// Package api is a client for the discuss comment service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anonto42/discuss/internal/models"
	"github.com/go-resty/resty/v2"
)

// TokenCookie mirrors the bearer token for cookie-based request authorization.
const TokenCookie = "token"

// TokenSource supplies the bearer token of the current session, or "" when anonymous.
type TokenSource interface {
	Token() string
}

type Client struct {
	rest   *resty.Client
	tokens TokenSource
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// New creates a client for the service rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &Client{rest: rest}
}

// UseTokens sets where request tokens come from.
func (c *Client) UseTokens(tokens TokenSource) *Client {
	c.tokens = tokens
	return c
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.rest.R().SetContext(ctx)
	if c.tokens == nil {
		return req
	}
	if tok := c.tokens.Token(); tok != "" {
		req.SetAuthToken(tok)
		req.SetCookie(&http.Cookie{Name: TokenCookie, Value: tok, Path: "/"})
	}
	return req
}

func do[T any](req *resty.Request, method, path string) (T, error) {
	var env envelope[T]
	var zero T

	resp, err := req.SetResult(&env).SetError(&env).Execute(method, path)
	if err != nil {
		return zero, &TransportError{Op: method + " " + path, Err: err}
	}
	if resp.IsError() || !env.Success {
		return zero, &APIError{Status: resp.StatusCode(), Message: env.Error}
	}
	return env.Data, nil
}

// Register creates an account and returns the new user with a token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.AuthPayload, error) {
	body := models.RegisterRequest{Name: name, Email: email, Password: password}
	out, err := do[models.AuthPayload](c.request(ctx).SetBody(body), http.MethodPost, "/auth/register")
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthPayload, error) {
	body := models.LoginRequest{Email: email, Password: password}
	out, err := do[models.AuthPayload](c.request(ctx).SetBody(body), http.MethodPost, "/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	out, err := do[models.User](c.request(ctx), http.MethodGet, "/auth/me")
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &out, nil
}

// ListComments returns the top-level comments in the given order, each with a reply count.
func (c *Client) ListComments(ctx context.Context, sortBy models.SortMode) (*models.CommentList, error) {
	req := c.request(ctx).SetQueryParam("sortBy", string(sortBy))
	out, err := do[models.CommentList](req, http.MethodGet, "/comments")
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &out, nil
}

// GetComment returns a comment with its direct replies.
func (c *Client) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	out, err := do[models.Comment](c.request(ctx), http.MethodGet, "/comments/"+strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &out, nil
}

// CreateComment posts a top-level comment (parentID nil) or a reply.
func (c *Client) CreateComment(ctx context.Context, text string, parentID *uint) (*models.Comment, error) {
	body := models.CreateCommentRequest{Text: text, ParentID: parentID}
	out, err := do[models.Comment](c.request(ctx).SetBody(body), http.MethodPost, "/comments/create")
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &out, nil
}

// UpvoteComment adds one upvote and returns the authoritative count.
func (c *Client) UpvoteComment(ctx context.Context, id uint) (int, error) {
	out, err := do[models.UpvoteResult](c.request(ctx), http.MethodPost, "/comments/"+strconv.FormatUint(uint64(id), 10)+"/upvote")
	if err != nil {
		return 0, fmt.Errorf("upvote comment %d: %w", id, err)
	}
	return out.Upvotes, nil
}

// DeleteComment removes a comment and its replies.
func (c *Client) DeleteComment(ctx context.Context, id uint) error {
	_, err := do[struct{}](c.request(ctx), http.MethodDelete, "/comments/"+strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	return nil
}
