package drawer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/optimistic"
	"github.com/anonto42/discuss/pkg/api"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when a frame that was popped or cleared is used, or a fetch finishes after that.
	ErrClosed = errors.New("drawer frame closed")
	// ErrEmptyText is returned for whitespace-only reply text.
	ErrEmptyText = errors.New("comment text cannot be empty")
)

// Service is the part of the comment service a frame needs.
type Service interface {
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	CreateComment(ctx context.Context, text string, parentID *uint) (*models.Comment, error)
	UpvoteComment(ctx context.Context, id uint) (int, error)
	DeleteComment(ctx context.Context, id uint) error
}

// State is the load state of a frame.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is a copy of a frame's state, safe to read without locking.
type View struct {
	FrameID   string
	CommentID uint
	State     State
	// Comment is the last loaded comment with its replies, nil until the first successful load.
	Comment *models.Comment
	Err     string
}

// Frame shows one comment and its direct replies. It fetches on its own and reconciles every
// mutation with a full reload.
type Frame struct {
	id        string
	commentID uint
	svc       Service
	log       *zap.Logger

	mu      sync.Mutex
	state   State
	comment *models.Comment
	err     string
	closed  bool
}

func newFrame(id string, commentID uint, svc Service, logger *zap.Logger) *Frame {
	return &Frame{
		id:        id,
		commentID: commentID,
		svc:       svc,
		log:       logger.With(zap.String("frame", id), zap.Uint("comment_id", commentID)),
	}
}

// ID is unique per push, even when the same comment is opened twice.
func (f *Frame) ID() string { return f.id }

// CommentID is the comment this frame displays.
func (f *Frame) CommentID() uint { return f.commentID }

// Snapshot returns a deep copy of the frame state.
func (f *Frame) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{FrameID: f.id, CommentID: f.commentID, State: f.state, Err: f.err}
	if f.comment != nil {
		c := f.comment.Clone()
		v.Comment = &c
	}
	return v
}

// Load fetches the comment with its replies. The last fetch to complete wins.
// Results arriving after the frame was closed are dropped and ErrClosed is returned.
func (f *Frame) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.state = StateLoading
	f.err = ""
	f.mu.Unlock()

	comment, err := f.svc.GetComment(ctx, f.commentID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if err != nil {
		f.state = StateFailed
		f.err = loadErrorMessage(err)
		f.log.Warn("failed to load replies", zap.Error(err))
		return err
	}
	f.state = StateReady
	f.comment = comment
	return nil
}

// Retry reloads a failed frame.
func (f *Frame) Retry(ctx context.Context) error {
	return f.Load(ctx)
}

// Upvote bumps targetID locally right away, sends the upvote, then reloads whatever the outcome.
// targetID may be the frame's comment or one of its replies.
func (f *Frame) Upvote(ctx context.Context, targetID uint) error {
	return f.mutate(ctx, "upvote", optimistic.Mutation{
		Apply: func() { f.bump(targetID) },
		Commit: func(ctx context.Context) error {
			_, err := f.svc.UpvoteComment(ctx, targetID)
			return err
		},
	})
}

// Reply posts text under parentID and reloads to show it. Nothing is inserted locally since the
// server assigns the id and author snapshot.
func (f *Frame) Reply(ctx context.Context, parentID uint, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	return f.mutate(ctx, "reply", optimistic.Mutation{
		Commit: func(ctx context.Context) error {
			_, err := f.svc.CreateComment(ctx, text, &parentID)
			return err
		},
	})
}

// Delete removes id and reloads. Callers gate this with session.CanDelete.
func (f *Frame) Delete(ctx context.Context, id uint) error {
	return f.mutate(ctx, "delete", optimistic.Mutation{
		Commit: func(ctx context.Context) error {
			return f.svc.DeleteComment(ctx, id)
		},
	})
}

func (f *Frame) mutate(ctx context.Context, action string, m optimistic.Mutation) error {
	if f.isClosed() {
		return ErrClosed
	}
	m.Reconcile = func(ctx context.Context) {
		// Load records its own failure in the frame state.
		_ = f.Load(ctx)
	}
	if err := m.Run(ctx); err != nil {
		f.log.Warn("drawer action failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (f *Frame) bump(targetID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.comment == nil || f.closed {
		return
	}
	if f.comment.ID == targetID {
		f.comment.Upvotes++
	}
	for i := range f.comment.Replies {
		if f.comment.Replies[i].ID == targetID {
			f.comment.Replies[i].Upvotes++
		}
	}
}

func (f *Frame) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Frame) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func loadErrorMessage(err error) string {
	var transport *api.TransportError
	if errors.As(err, &transport) {
		return "Unable to load replies"
	}
	return "Failed to load replies"
}
