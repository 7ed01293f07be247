package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/discuss/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SharedPostSlug identifies the single post every comment belongs to.
const SharedPostSlug = "main"

// ErrPostNotFound is returned when the shared post does not exist.
var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the interface for the shared post
type PostRepository interface {
	EnsurePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context) (*models.Post, error)
	IncrementCommentsCount(ctx context.Context, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsurePost inserts the shared post unless it already exists
func (r *MongoPostRepository) EnsurePost(ctx context.Context, post *models.Post) error {
	now := time.Now()
	post.Slug = SharedPostSlug
	update := bson.M{
		"$setOnInsert": bson.M{
			"slug":           post.Slug,
			"title":          post.Title,
			"content":        post.Content,
			"image_urls":     post.ImageURLs,
			"comments_count": 0,
			"created_at":     now,
			"updated_at":     now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"slug": SharedPostSlug}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert shared post: %w", err)
	}
	return nil
}

// GetPost retrieves the shared post
func (r *MongoPostRepository) GetPost(ctx context.Context) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"slug": SharedPostSlug}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// IncrementCommentsCount adds delta (which may be negative) to the comment counter
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, delta int) error {
	update := bson.M{
		"$inc": bson.M{"comments_count": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"slug": SharedPostSlug}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}
