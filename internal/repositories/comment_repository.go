package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/discuss/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, sortBy models.SortMode) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error)
	DeleteCommentTree(ctx context.Context, id uint) ([]uint, error)
}

// PostgresCommentRepository implements CommentRepository on top of gorm
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment stores the comment and loads its author snapshot. Nothing is stored when the author is missing.
func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, comment.UserID).Error; err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return err
	}
	compact := user.ToCompact()
	comment.Author = &compact
	zero := 0
	comment.ReplyCount = &zero
	return nil
}

// GetCommentByID retrieves a comment with its author; replies are not loaded
func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	withAuthor(&comment)
	return &comment, nil
}

// ListTopLevel returns every comment without a parent, ordered by sortBy.
// Equal upvote counts under "top" fall back to ascending id so the order is stable across reads.
func (r *PostgresCommentRepository) ListTopLevel(ctx context.Context, sortBy models.SortMode) ([]models.Comment, error) {
	q := r.db.WithContext(ctx).Preload("User").Where("parent_id IS NULL")
	switch sortBy {
	case models.SortTop:
		q = q.Order("upvotes DESC").Order("id ASC")
	case models.SortNew:
		q = q.Order("created_at DESC").Order("id DESC")
	default:
		return nil, fmt.Errorf("unknown sort mode %q", sortBy)
	}

	var comments []models.Comment
	if err := q.Find(&comments).Error; err != nil {
		return nil, err
	}
	if err := r.attachReplyCounts(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListReplies returns the direct replies of parentID, oldest first
func (r *PostgresCommentRepository) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	var replies []models.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").Order("id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachReplyCounts(ctx, replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// DeleteCommentTree deletes the comment, every comment below it and their upvotes, returning the deleted ids
func (r *PostgresCommentRepository) DeleteCommentTree(ctx context.Context, id uint) ([]uint, error) {
	var deleted []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.Select("id").First(&root, id).Error; err != nil {
			return err
		}
		ids := []uint{root.ID}
		frontier := []uint{root.ID}
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentUpvote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, ids).Error; err != nil {
			return err
		}
		deleted = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *PostgresCommentRepository) attachReplyCounts(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}

	var rows []struct {
		ParentID uint
		Count    int
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.ParentID] = row.Count
	}
	for i := range comments {
		n := counts[comments[i].ID]
		comments[i].ReplyCount = &n
		withAuthor(&comments[i])
	}
	return nil
}

func withAuthor(c *models.Comment) {
	if c.User == nil {
		return
	}
	compact := c.User.ToCompact()
	c.Author = &compact
	c.User = nil
}
