// Package testutil runs the discussion API in-process on an in-memory database.
package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/discuss/internal/handlers"
	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/router"
	"github.com/anonto42/discuss/pkg/config"
	"github.com/anonto42/discuss/pkg/metrics"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AdminEmail is granted the admin role by servers built with NewServer.
const AdminEmail = "admin@example.com"

type Server struct {
	// URL is the API base, ending in /api
	URL     string
	Root    string
	DB      *gorm.DB
	Config  *config.Config
	Metrics *metrics.Metrics
}

// NewServer starts the full router against a fresh sqlite database. It is shut down with the test.
func NewServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := &config.Config{
		Env:         "test",
		DBDriver:    "sqlite",
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
		AdminEmails: []string{AdminEmail},
	}
	m := metrics.New()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.SetupMiddleware(e, zap.NewNop(), m)
	require.NoError(t, router.SetupRoutes(e, router.Deps{
		Config:  cfg,
		SQL:     db,
		Metrics: m,
		Logger:  zap.NewNop(),
	}))

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		sqlDB.Close()
	})

	return &Server{
		URL:     srv.URL + "/api",
		Root:    srv.URL,
		DB:      db,
		Config:  cfg,
		Metrics: m,
	}
}

// CreateUser inserts a user directly and returns it with a signed token.
func (s *Server) CreateUser(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()
	role := models.RoleUser
	if s.Config.IsAdminEmail(email) {
		role = models.RoleAdmin
	}
	user := &models.User{Name: name, Email: email, Role: role, Avatar: "avatar.png"}
	require.NoError(t, s.DB.Create(user).Error)

	token, err := handlers.GenerateJWT(user, s.Config.JWTSecret, s.Config.JWTTTL)
	require.NoError(t, err)
	return user, token
}
