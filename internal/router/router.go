package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/discuss/internal/handlers"
	"github.com/anonto42/discuss/internal/middleware"
	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/repositories"
	"github.com/anonto42/discuss/pkg/config"
	"github.com/anonto42/discuss/pkg/metrics"
	"github.com/anonto42/discuss/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are built from. Mongo and FirebaseAuth are optional.
type Deps struct {
	Config       *config.Config
	SQL          *gorm.DB
	Mongo        *mongo.Client
	FirebaseAuth *auth.Client
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// SetupMiddleware configures global Echo middleware, the validator and the error renderer
func SetupMiddleware(e *echo.Echo, logger *zap.Logger, m *metrics.Metrics) {
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Pre(eMiddleware.RemoveTrailingSlash())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Debug("request", fields...)
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: false,
	}))
	e.Use(middleware.RequestMetrics(m))
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) error {
	if err := repositories.Migrate(deps.SQL); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	deps.Logger.Info("SQL auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.SQL)
	commentRepo := repositories.NewPostgresCommentRepository(deps.SQL)
	upvoteRepo := repositories.NewPostgresCommentUpvoteRepository(deps.SQL)

	var postRepo repositories.PostRepository
	if deps.Mongo != nil {
		mongoPosts := repositories.NewMongoPostRepository(deps.Mongo.Database(deps.Config.MongoDatabase))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoPosts.EnsurePost(ctx, &models.Post{Title: "Discussion", Content: ""}); err != nil {
			return err
		}
		postRepo = mongoPosts
	}

	requireAuth := middleware.JWTAuthMiddleware(deps.Config.JWTSecret)
	optionalAuth := middleware.OptionalJWTAuthMiddleware(deps.Config.JWTSecret)

	api := e.Group("/api")

	authHandler := handlers.NewAuthHandler(userRepo, deps.FirebaseAuth, deps.Config, deps.Logger)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), requireAuth)

	commentHandler := handlers.NewCommentHandler(commentRepo, upvoteRepo, userRepo, postRepo, deps.Metrics, deps.Logger)
	commentHandler.RegisterCommentRoutes(api, optionalAuth, requireAuth)

	if postRepo != nil {
		handlers.NewPostHandler(postRepo).RegisterPostRoutes(api)
	}

	deps.Logger.Info("routes configured",
		zap.Bool("firebase_login", deps.FirebaseAuth != nil),
		zap.Bool("shared_post", postRepo != nil))
	return nil
}

// HTTPErrorHandler renders every error as {success: false, error: message}
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		} else {
			logger.Error("unhandled error", zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, echo.Map{"success": false, "error": msg})
		}
		if werr != nil {
			logger.Error("failed to write error response", zap.Error(werr))
		}
	}
}
