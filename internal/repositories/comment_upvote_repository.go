package repositories

import (
	"context"

	"github.com/anonto42/discuss/internal/models"
	"gorm.io/gorm"
)

// CommentUpvoteRepository defines the interface for comment upvote operations
type CommentUpvoteRepository interface {
	Upvote(ctx context.Context, commentID, userID uint) (int, error)
}

type postgresCommentUpvoteRepository struct {
	db *gorm.DB
}

func NewPostgresCommentUpvoteRepository(db *gorm.DB) CommentUpvoteRepository {
	return &postgresCommentUpvoteRepository{db: db}
}

// Upvote records the click and bumps the counter in one transaction, returning the new count
func (r *postgresCommentUpvoteRepository) Upvote(ctx context.Context, commentID, userID uint) (int, error) {
	var upvotes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(&models.CommentUpvote{CommentID: commentID, UserID: userID}).Error; err != nil {
			return err
		}
		var comment models.Comment
		if err := tx.Select("id", "upvotes").First(&comment, commentID).Error; err != nil {
			return err
		}
		upvotes = comment.Upvotes
		return nil
	})
	return upvotes, err
}
