package handlers

import (
	"errors"
	"log"

	"bounty-board-service/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError translates a service-layer error into its stable status code
// and the success/message envelope.
func serviceError(c *fiber.Ctx, err error) error {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{
			"success": false,
			"message": appErr.Message,
			"code":    string(appErr.Kind),
		})
	}
	log.Printf("❌ [HTTP] unclassified error on %s: %v", c.Path(), err)
	return c.Status(500).JSON(fiber.Map{"success": false, "message": "Server error"})
}

func kindOf(err error) services.Kind {
	return services.ErrKind(err)
}
