// Package store keeps the client's copy of the top-level comment list.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/pkg/api"
	"go.uber.org/zap"
)

var (
	// ErrEmptyText is returned for whitespace-only comment text.
	ErrEmptyText = errors.New("comment text cannot be empty")
	// ErrInvalidSort is returned for sort modes other than top and new.
	ErrInvalidSort = errors.New("sort must be one of top, new")
)

// Service is the part of the comment service the store needs.
type Service interface {
	ListComments(ctx context.Context, sortBy models.SortMode) (*models.CommentList, error)
	CreateComment(ctx context.Context, text string, parentID *uint) (*models.Comment, error)
	UpvoteComment(ctx context.Context, id uint) (int, error)
	DeleteComment(ctx context.Context, id uint) error
}

// View is a copy of the store state.
type View struct {
	Comments []models.Comment
	SortBy   models.SortMode
	Loading  bool
	Err      string
}

// Store owns the top-level comments and their order. It never reads from drawer frames;
// the two may disagree until the next Fetch.
type Store struct {
	svc Service
	log *zap.Logger

	mu       sync.Mutex
	comments []models.Comment
	sortBy   models.SortMode
	loading  bool
	err      string
}

// New returns an empty store sorted by top.
func New(svc Service, logger *zap.Logger) *Store {
	return &Store{
		svc:      svc,
		log:      logger,
		comments: []models.Comment{},
		sortBy:   models.SortTop,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Comment, len(s.comments))
	for i, c := range s.comments {
		out[i] = c.Clone()
	}
	return View{Comments: out, SortBy: s.sortBy, Loading: s.loading, Err: s.err}
}

// SortBy returns the current sort mode.
func (s *Store) SortBy() models.SortMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortBy
}

// Fetch replaces the list with the server's, in the current sort order.
// On failure the previous list is kept and the error message is recorded.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	sortBy := s.sortBy
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	list, err := s.svc.ListComments(ctx, sortBy)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = fetchErrorMessage(err)
		s.log.Warn("failed to fetch comments", zap.String("sort", string(sortBy)), zap.Error(err))
		return err
	}
	s.comments = list.Comments
	if s.comments == nil {
		s.comments = []models.Comment{}
	}
	return nil
}

// SetSortBy switches the order and refetches. The server decides the order; nothing is resorted locally.
func (s *Store) SetSortBy(ctx context.Context, sortBy models.SortMode) error {
	if !sortBy.Valid() {
		return ErrInvalidSort
	}
	s.mu.Lock()
	s.sortBy = sortBy
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// Create posts a comment. A new top-level comment is put at the head of the list as returned by the
// server. A reply is not a list item, so the list is refetched to pick up the parent's reply count.
// A nil error means the comment was created, even if that refetch failed.
func (s *Store) Create(ctx context.Context, text string, parentID *uint) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	comment, err := s.svc.CreateComment(ctx, text, parentID)
	if err != nil {
		s.log.Warn("failed to create comment", zap.Error(err))
		return err
	}

	if parentID != nil {
		// Fetch records its own failure.
		_ = s.Fetch(ctx)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append([]models.Comment{*comment}, s.comments...)
	return nil
}

// Upvote sends an upvote and patches only the upvote count of the matching entry with the server's
// value. The order is left alone until the next Fetch.
func (s *Store) Upvote(ctx context.Context, id uint) error {
	upvotes, err := s.svc.UpvoteComment(ctx, id)
	if err != nil {
		s.log.Warn("failed to upvote", zap.Uint("comment_id", id), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Upvotes = upvotes
		}
	}
	return nil
}

// Delete removes the comment on the server and then from the list. On failure the list is untouched.
func (s *Store) Delete(ctx context.Context, id uint) error {
	if err := s.svc.DeleteComment(ctx, id); err != nil {
		s.log.Warn("failed to delete", zap.Uint("comment_id", id), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.comments[:0]
	for _, c := range s.comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.comments = kept
	return nil
}

// Clear empties the list and the error.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = []models.Comment{}
	s.err = ""
}

func fetchErrorMessage(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.As(err, &apiErr):
		return "Failed to fetch comments"
	default:
		return "Unable to connect to server"
	}
}

// Find returns a copy of the top-level comment with the given id.
func (s *Store) Find(id uint) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return models.Comment{}, fmt.Errorf("comment %d is not in the list", id)
}
