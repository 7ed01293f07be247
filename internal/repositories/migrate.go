package repositories

import (
	"github.com/anonto42/discuss/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the SQL schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.CommentUpvote{},
	)
}
