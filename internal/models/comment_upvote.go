package models

import "time"

// CommentUpvote records a single upvote click. A user may upvote the same comment repeatedly.
type CommentUpvote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"index"`
	UserID    uint      `json:"user_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}
