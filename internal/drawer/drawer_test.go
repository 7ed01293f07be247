package drawer

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService serves a single thread held in memory.
type fakeService struct {
	mu       sync.Mutex
	comments map[uint]*models.Comment
	children map[uint][]uint
	nextID   uint
	getErr   error
	// extra upvotes other users add on the server between reads
	concurrentUpvotes int
	upvoteErr         error
	onUpvote          func()
	// gate blocks GetComment until closed when set
	gate chan struct{}
}

func newFakeService() *fakeService {
	return &fakeService{
		comments: map[uint]*models.Comment{},
		children: map[uint][]uint{},
		nextID:   1000,
	}
}

func (f *fakeService) add(id uint, parent *uint, upvotes int) {
	f.comments[id] = &models.Comment{ID: id, ParentID: parent, Upvotes: upvotes, Text: "comment"}
	if parent != nil {
		f.children[*parent] = append(f.children[*parent], id)
	}
}

func (f *fakeService) GetComment(_ context.Context, id uint) (*models.Comment, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, &api.APIError{Status: http.StatusNotFound, Message: "Comment not found"}
	}
	out := *c
	out.Replies = []models.Comment{}
	for _, childID := range f.children[id] {
		out.Replies = append(out.Replies, *f.comments[childID])
	}
	return &out, nil
}

func (f *fakeService) CreateComment(_ context.Context, text string, parentID *uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.add(f.nextID, parentID, 0)
	f.comments[f.nextID].Text = text
	c := *f.comments[f.nextID]
	return &c, nil
}

func (f *fakeService) UpvoteComment(_ context.Context, id uint) (int, error) {
	if f.onUpvote != nil {
		f.onUpvote()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upvoteErr != nil {
		return 0, f.upvoteErr
	}
	c, ok := f.comments[id]
	if !ok {
		return 0, &api.APIError{Status: http.StatusNotFound, Message: "Comment not found"}
	}
	c.Upvotes += 1 + f.concurrentUpvotes
	return c.Upvotes, nil
}

func (f *fakeService) DeleteComment(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return &api.APIError{Status: http.StatusNotFound, Message: "Comment not found"}
	}
	delete(f.comments, id)
	if c.ParentID != nil {
		kept := f.children[*c.ParentID][:0]
		for _, childID := range f.children[*c.ParentID] {
			if childID != id {
				kept = append(kept, childID)
			}
		}
		f.children[*c.ParentID] = kept
	}
	return nil
}

func threadFixture() *fakeService {
	svc := newFakeService()
	root := uint(7)
	svc.add(root, nil, 2)
	svc.add(101, &root, 1)
	svc.add(102, &root, 0)
	return svc
}

func replyIDs(v View) []uint {
	if v.Comment == nil {
		return nil
	}
	out := make([]uint, len(v.Comment.Replies))
	for i, r := range v.Comment.Replies {
		out[i] = r.ID
	}
	return out
}

func TestStack_PushPopClear(t *testing.T) {
	s := NewStack(newFakeService(), zap.NewNop())
	assert.Nil(t, s.Active())
	assert.Nil(t, s.Pop())
	assert.Equal(t, 0, s.Len())

	a := s.Push(1)
	b := s.Push(2)
	assert.Same(t, b, s.Active())
	assert.True(t, s.CanGoBack())

	assert.Same(t, b, s.Pop())
	assert.Same(t, a, s.Active())
	assert.False(t, s.CanGoBack())

	s.Push(3)
	s.Push(4)
	s.Clear()
	assert.Nil(t, s.Active())
	assert.Equal(t, 0, s.Len())

	s.Push(5)
	s.Pop()
	assert.Nil(t, s.Pop())
	assert.Nil(t, s.Active())
}

func TestStack_ActiveIsLastUnpopped(t *testing.T) {
	s := NewStack(newFakeService(), zap.NewNop())
	var model []*Frame
	ops := []int{1, 2, -1, 3, 4, -1, -1, -1, -1, 5, 0, 6, 7, -1}
	for _, op := range ops {
		switch {
		case op > 0:
			model = append(model, s.Push(uint(op)))
		case op < 0:
			s.Pop()
			if len(model) > 0 {
				model = model[:len(model)-1]
			}
		default:
			s.Clear()
			model = nil
		}

		if len(model) == 0 {
			assert.Nil(t, s.Active())
		} else {
			assert.Same(t, model[len(model)-1], s.Active())
		}
		assert.Equal(t, len(model), s.Len())
	}
}

func TestStack_SameCommentTwice(t *testing.T) {
	s := NewStack(newFakeService(), zap.NewNop())
	s.Push(1)
	first := s.Push(9)
	second := s.Push(9)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, first.CommentID(), second.CommentID())

	s.Pop()
	assert.Same(t, first, s.Active())
	assert.Len(t, s.Frames(), 2)
}

func TestFrame_LoadStates(t *testing.T) {
	svc := threadFixture()
	f := NewStack(svc, zap.NewNop()).Push(7)
	assert.Equal(t, StateIdle, f.Snapshot().State)

	require.NoError(t, f.Load(context.Background()))
	v := f.Snapshot()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, []uint{101, 102}, replyIDs(v))

	svc.getErr = &api.TransportError{Op: "GET /comments/7", Err: errors.New("connection refused")}
	require.Error(t, f.Load(context.Background()))
	v = f.Snapshot()
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "Unable to load replies", v.Err)

	svc.getErr = nil
	require.NoError(t, f.Retry(context.Background()))
	v = f.Snapshot()
	assert.Equal(t, StateReady, v.State)
	assert.Empty(t, v.Err)
}

func TestFrame_LoadMissingComment(t *testing.T) {
	f := NewStack(threadFixture(), zap.NewNop()).Push(404)
	err := f.Load(context.Background())
	assert.ErrorIs(t, err, api.ErrNotFound)
	v := f.Snapshot()
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "Failed to load replies", v.Err)
}

func TestFrame_UpvoteSpeculativeThenReconciled(t *testing.T) {
	svc := threadFixture()
	f := NewStack(svc, zap.NewNop()).Push(7)
	require.NoError(t, f.Load(context.Background()))

	var during View
	svc.onUpvote = func() { during = f.Snapshot() }
	svc.concurrentUpvotes = 2

	require.NoError(t, f.Upvote(context.Background(), 101))
	require.NotNil(t, during.Comment)
	assert.Equal(t, 2, during.Comment.Replies[0].Upvotes)

	// another user's upvotes landed too; the reload shows the server's count
	after := f.Snapshot()
	assert.Equal(t, StateReady, after.State)
	assert.Equal(t, 4, after.Comment.Replies[0].Upvotes)
	assert.Equal(t, 2, after.Comment.Upvotes)
}

func TestFrame_UpvoteFailureStillReconciles(t *testing.T) {
	svc := threadFixture()
	f := NewStack(svc, zap.NewNop()).Push(7)
	require.NoError(t, f.Load(context.Background()))

	svc.upvoteErr = &api.APIError{Status: http.StatusInternalServerError, Message: "boom"}
	require.Error(t, f.Upvote(context.Background(), 7))
	assert.Equal(t, 2, f.Snapshot().Comment.Upvotes)
}

func TestFrame_DeleteReply(t *testing.T) {
	svc := threadFixture()
	f := NewStack(svc, zap.NewNop()).Push(7)
	require.NoError(t, f.Load(context.Background()))
	require.Equal(t, []uint{101, 102}, replyIDs(f.Snapshot()))

	require.NoError(t, f.Delete(context.Background(), 101))
	assert.Equal(t, []uint{102}, replyIDs(f.Snapshot()))
}

func TestFrame_Reply(t *testing.T) {
	svc := threadFixture()
	f := NewStack(svc, zap.NewNop()).Push(7)
	require.NoError(t, f.Load(context.Background()))

	assert.ErrorIs(t, f.Reply(context.Background(), 7, "  "), ErrEmptyText)

	require.NoError(t, f.Reply(context.Background(), 7, " thanks "))
	v := f.Snapshot()
	require.Len(t, v.Comment.Replies, 3)
	assert.Equal(t, "thanks", v.Comment.Replies[2].Text)
}

func TestFrame_ClosedDropsLateResult(t *testing.T) {
	svc := threadFixture()
	svc.gate = make(chan struct{})
	s := NewStack(svc, zap.NewNop())
	f := s.Push(7)

	done := make(chan error, 1)
	go func() { done <- f.Load(context.Background()) }()

	require.Eventually(t, func() bool { return f.Snapshot().State == StateLoading }, timeout, tick)
	s.Pop()
	close(svc.gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	v := f.Snapshot()
	assert.Equal(t, StateLoading, v.State)
	assert.Nil(t, v.Comment)

	assert.ErrorIs(t, f.Upvote(context.Background(), 7), ErrClosed)
	assert.ErrorIs(t, f.Load(context.Background()), ErrClosed)
}

func TestFrame_MutationReloadPassesThroughLoading(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Frame) error
	}{
		{"upvote", func(f *Frame) error { return f.Upvote(context.Background(), 101) }},
		{"reply", func(f *Frame) error { return f.Reply(context.Background(), 7, "late reply") }},
		{"delete", func(f *Frame) error { return f.Delete(context.Background(), 102) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := threadFixture()
			f := NewStack(svc, zap.NewNop()).Push(7)
			require.NoError(t, f.Load(context.Background()))
			require.Equal(t, StateReady, f.Snapshot().State)

			svc.gate = make(chan struct{})
			done := make(chan error, 1)
			go func() { done <- tt.mutate(f) }()

			require.Eventually(t, func() bool { return f.Snapshot().State == StateLoading }, timeout, tick)
			close(svc.gate)

			require.NoError(t, <-done)
			assert.Equal(t, StateReady, f.Snapshot().State)
		})
	}
}

func TestFrame_FailedRecoversThroughMutationReload(t *testing.T) {
	svc := threadFixture()
	f := NewStack(svc, zap.NewNop()).Push(7)

	svc.getErr = &api.APIError{Status: http.StatusInternalServerError, Message: "boom"}
	require.Error(t, f.Load(context.Background()))
	require.Equal(t, StateFailed, f.Snapshot().State)

	svc.mu.Lock()
	svc.getErr = nil
	svc.mu.Unlock()
	svc.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.Upvote(context.Background(), 7) }()

	// the upvote alone does not leave failed; only the reload does
	require.Eventually(t, func() bool { return f.Snapshot().State == StateLoading }, timeout, tick)
	close(svc.gate)

	require.NoError(t, <-done)
	v := f.Snapshot()
	assert.Equal(t, StateReady, v.State)
	assert.Empty(t, v.Err)
	require.NotNil(t, v.Comment)
	assert.Equal(t, 3, v.Comment.Upvotes)
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)
