package models

import "time"

// Comment is a top-level comment on the shared post (ParentID nil) or a reply.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Upvotes   int       `json:"upvotes" gorm:"not null;default:0;index"`
	ParentID  *uint     `json:"parent_id" gorm:"index"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	User      *User     `json:"-" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Author is a denormalized snapshot of User taken when the comment is read.
	Author *UserCompact `json:"user,omitempty" gorm:"-"`
	// Replies is only set on detail reads and holds direct children only.
	Replies []Comment `json:"replies,omitempty" gorm:"-"`
	// ReplyCount is set on list reads.
	ReplyCount *int `json:"reply_count,omitempty" gorm:"-"`
}

// IsTopLevel reports whether the comment hangs directly off the post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Clone returns a deep copy of the comment, including replies.
func (c Comment) Clone() Comment {
	out := c
	if c.ParentID != nil {
		id := *c.ParentID
		out.ParentID = &id
	}
	if c.Author != nil {
		a := *c.Author
		out.Author = &a
	}
	if c.ReplyCount != nil {
		n := *c.ReplyCount
		out.ReplyCount = &n
	}
	out.User = nil
	if c.Replies != nil {
		out.Replies = make([]Comment, len(c.Replies))
		for i, r := range c.Replies {
			out.Replies[i] = r.Clone()
		}
	}
	return out
}

// SortMode selects the order of the top-level list.
type SortMode string

const (
	SortTop SortMode = "top"
	SortNew SortMode = "new"
)

// Valid reports whether s is a known sort mode.
func (s SortMode) Valid() bool {
	return s == SortTop || s == SortNew
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text     string `json:"text" validate:"required,max=10000"`
	ParentID *uint  `json:"parent_id"`
}

// CommentList is the data of a list response.
type CommentList struct {
	Comments    []Comment    `json:"comments"`
	CurrentUser *UserCompact `json:"currentUser,omitempty"`
}

// UpvoteResult is the data of an upvote response.
type UpvoteResult struct {
	Upvotes int `json:"upvotes"`
}
