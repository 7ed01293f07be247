package config

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections. Mongo is nil when MONGO_URI is not set.
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client

	log *zap.Logger
}

// InitDB initializes and returns the database connections
func InitDB(cfg *Config, logger *zap.Logger) (*DB, error) {
	db := &DB{log: logger}

	var err error
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresConnStr == "" {
			return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		db.SQL, err = initSQL(postgres.Open(cfg.PostgresConnStr))
	case "sqlite":
		db.SQL, err = initSQL(sqlite.Open(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}
	logger.Info("connected to SQL database", zap.String("driver", cfg.DBDriver))

	if cfg.MongoURI != "" {
		db.Mongo, err = initMongo(cfg.MongoURI)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		logger.Info("connected to MongoDB")
	}

	return db, nil
}

// initSQL opens a gorm connection and pings it
func initSQL(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			db.log.Error("error getting SQL DB from gorm", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			db.log.Error("error closing SQL connection", zap.Error(err))
		} else {
			db.log.Info("SQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error("error closing MongoDB connection", zap.Error(err))
		} else {
			db.log.Info("MongoDB connection closed")
		}
	}
}
