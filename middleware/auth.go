package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the wallet identity and roles set by the
// Gateway after wallet-signature auth. The bounty service itself never
// verifies signatures; that is the Gateway's job.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := c.Get("X-Wallet-Address")
		rolesStr := c.Get("X-User-Roles")

		if wallet == "" {
			log.Printf("❌ [USER_CTX] X-Wallet-Address missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Wallet-Address — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		// Attach to ctx for handlers
		c.Locals("wallet_address", wallet)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}
