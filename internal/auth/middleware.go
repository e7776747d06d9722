package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// JWTMiddleware validates bearer tokens and stores the caller's Identity in
// locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}
		if claims.Type != tokenAccess {
			return fiber.NewError(fiber.StatusUnauthorized, "access token required")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals(identityKey, claims.Identity())
		return c.Next()
	}
}

// IdentityFrom returns the caller set by JWTMiddleware, or the zero Identity
// on unauthenticated routes.
func IdentityFrom(c *fiber.Ctx) Identity {
	ident, _ := c.Locals(identityKey).(Identity)
	return ident
}

// WithIdentity is a stand-in for JWTMiddleware in handler tests.
func WithIdentity(ident Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", ident.ID)
		c.Locals(identityKey, ident)
		return c.Next()
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
