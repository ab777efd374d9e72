package auth

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// HashAPIKey hashes a plaintext API key with the configured cost.
func HashAPIKey(key string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyAPIKey checks a presented key against its stored bcrypt hash.
func VerifyAPIKey(hashed, presented string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(presented))
}

// RequireAPIKey guards privileged operational endpoints with an X-Api-Key
// header checked against a bcrypt hash.
func RequireAPIKey(hashed string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		presented := c.Get("X-Api-Key")
		if hashed == "" || presented == "" || VerifyAPIKey(hashed, presented) != nil {
			return apperrors.NewUnauthorized("invalid api key")
		}
		return c.Next()
	}
}
