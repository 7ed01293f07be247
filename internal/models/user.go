package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles a user can hold.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Avatar      string    `json:"avatar"`
	Role        string    `json:"role" gorm:"size:10;default:USER"`
	Password    string    `json:"-"`                                         // Store hashed password, ignore for JSON serialization
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

// UserCompact is the author snapshot embedded in comments.
type UserCompact struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

// ToCompact returns the public part of the user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Role:   u.Role,
	}
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
