package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/promptarena-go-api/internal/utils"
)

const bearerPrefix = "bearer "

var errMissingToken = errors.New("authorization header missing")

// JWTProtected returns a middleware that requires a valid HMAC bearer token.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, secret); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		return c.Next()
	}
}

// OptionalJWT validates a bearer token when one is sent and lets anonymous
// requests through. A malformed or expired token is still rejected.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := authenticate(c, secret)
		switch {
		case err == nil, errors.Is(err, errMissingToken):
			return c.Next()
		default:
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
	}
}

func authenticate(c *fiber.Ctx, secret string) error {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		return errMissingToken
	}

	if !strings.HasPrefix(strings.ToLower(authorization), bearerPrefix) {
		return errors.New("invalid authorization header")
	}

	tokenString := strings.TrimSpace(authorization[len(bearerPrefix):])
	if tokenString == "" {
		return errors.New("invalid token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid token claims")
	}

	if subject := subjectFromClaims(claims); subject != "" {
		c.Locals("user_id", subject)
	}
	return nil
}

func subjectFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "user_id", "id"} {
		switch v := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			if v >= 0 {
				return strconv.FormatInt(int64(v), 10)
			}
		}
	}
	return ""
}

// UserID returns the authenticated subject, or an empty string for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok {
		return v
	}
	return ""
}
