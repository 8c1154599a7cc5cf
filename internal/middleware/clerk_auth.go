package middleware

import (
	"context"
	"strings"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/logger"
)

// LocalUserID is the owner used when authentication is disabled
const LocalUserID = "local"

// TokenVerifier checks a bearer token and returns the subject it was issued to
type TokenVerifier func(ctx context.Context, token string) (string, error)

// ClerkVerifier verifies Clerk session JWTs signed for the given secret key
func ClerkVerifier(secretKey string) TokenVerifier {
	clerk.SetKey(secretKey)
	return func(ctx context.Context, token string) (string, error) {
		claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
}

// Auth validates bearer tokens with verify. A nil verifier disables authentication
// and every request runs as LocalUserID.
func Auth(verify TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		if verify == nil {
			c.Locals("user_id", LocalUserID)
			return c.Next()
		}

		// Get token from Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Remove "Bearer " prefix
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		subject, err := verify(c.Context(), token)
		if err != nil {
			log := logger.FromContext(c.Context())
			log.Warn().Err(err).Msg("token verification failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Store user ID in context for use in handlers
		c.Locals("user_id", subject)

		return c.Next()
	}
}

// UserID returns the authenticated owner of the request
func UserID(c fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		return id
	}
	return LocalUserID
}
