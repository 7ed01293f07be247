package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/discuss/internal/middleware"
	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/repositories"
	"github.com/anonto42/discuss/pkg/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const avatarURL = "https://api.dicebear.com/7.x/initials/svg?seed="

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   *auth.Client
	cfg            *config.Config
	log            *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuthClient may be nil, which disables firebase login.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuthClient *auth.Client, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuthClient,
		cfg:            cfg,
		log:            logger,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/me", h.Me, requireAuth)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Register handles local user registration with email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := h.newUser(req.Name, req.Email)
	user.Password = string(hashedPassword)
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", user.Role))

	return h.issueToken(c, http.StatusCreated, user)
}

// Login handles local user authentication with email and password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.issueToken(c, http.StatusOK, user)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	user, err := h.userRepository.GetUserByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return dbError(err, "User not found")
	}
	return respond(c, http.StatusOK, user)
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT, creating or linking the user
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	email = normalizeEmail(email)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			// Link the existing local account
			user.FirebaseUID = &firebaseUID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user with Firebase UID")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = h.newUser(name, email)
			user.FirebaseUID = &firebaseUID
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
			}
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	return h.issueToken(c, http.StatusOK, user)
}

func (h *AuthHandler) newUser(name, email string) *models.User {
	role := models.RoleUser
	if h.cfg.IsAdminEmail(email) {
		role = models.RoleAdmin
	}
	return &models.User{
		Name:   name,
		Email:  email,
		Avatar: avatarURL + url.QueryEscape(name),
		Role:   role,
	}
}

func (h *AuthHandler) issueToken(c echo.Context, status int, user *models.User) error {
	token, err := GenerateJWT(user, h.cfg.JWTSecret, h.cfg.JWTTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return respond(c, status, models.AuthPayload{User: *user, Token: token})
}

// GenerateJWT signs an HS256 token for the user
func GenerateJWT(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
