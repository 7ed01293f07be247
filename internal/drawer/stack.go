// Package drawer implements the stacked reply drawers: a LIFO of frames, each showing one comment
// and its direct replies.
package drawer

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stack is the navigation history of open drawers. Only the tail is visible.
type Stack struct {
	svc Service
	log *zap.Logger
	now func() time.Time

	mu     sync.Mutex
	frames []*Frame
	seq    uint64
}

// NewStack returns an empty stack whose frames fetch through svc.
func NewStack(svc Service, logger *zap.Logger) *Stack {
	return &Stack{svc: svc, log: logger, now: time.Now}
}

// Push opens a new frame for commentID on top of the stack and returns it in the idle state.
// The same comment may be pushed any number of times; every push gets a fresh frame.
func (s *Stack) Push(commentID uint) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("drawer-%d-%d-%d", s.now().UnixMilli(), commentID, s.seq)
	f := newFrame(id, commentID, s.svc, s.log)
	s.frames = append(s.frames, f)
	return f
}

// Pop closes and removes the top frame, returning it. It returns nil on an empty stack.
func (s *Stack) Pop() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	f := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	f.close()
	return f
}

// Clear closes every frame and empties the stack.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.frames {
		f.close()
	}
	s.frames = nil
}

// Active returns the visible frame, or nil when no drawer is open.
func (s *Stack) Active() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Len is the number of open frames.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// CanGoBack reports whether popping would reveal another frame rather than close the drawer.
func (s *Stack) CanGoBack() bool {
	return s.Len() > 1
}

// Frames returns the open frames, bottom first.
func (s *Stack) Frames() []*Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}
