package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the single shared post the discussion hangs off, stored in MongoDB
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Slug          string             `json:"slug" bson:"slug"`
	Title         string             `json:"title" bson:"title"`
	Content       string             `json:"content" bson:"content"`
	ImageURLs     []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
