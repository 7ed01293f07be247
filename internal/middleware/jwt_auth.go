package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/discuss/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// TokenCookie is the cookie the client mirrors its bearer token into.
const TokenCookie = "token"

const claimsKey = "user"

var errNoToken = errors.New("no token")

// JWTAuthMiddleware rejects requests without a valid JWT and stores the claims in the context.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseRequestToken(c, secret)
			if err != nil {
				if errors.Is(err, errNoToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
				}
				return err
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuthMiddleware stores the claims when a valid JWT is present and lets anonymous requests through.
// An invalid token is still rejected.
func OptionalJWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseRequestToken(c, secret)
			switch {
			case errors.Is(err, errNoToken):
			case err != nil:
				return err
			default:
				c.Set(claimsKey, claims)
			}
			return next(c)
		}
	}
}

// CurrentClaims returns the authenticated claims, or nil for anonymous requests.
func CurrentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(claimsKey).(*models.JwtCustomClaims)
	return claims
}

func parseRequestToken(c echo.Context, secret string) (*models.JwtCustomClaims, error) {
	tokenString, err := requestToken(c)
	if err != nil {
		return nil, err
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
		}
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	if !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return claims, nil
}

// requestToken reads "Bearer <token>" from the Authorization header, falling back to the token cookie.
func requestToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errNoToken
}
