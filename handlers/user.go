package handlers

import (
	"path/filepath"

	"bounty-board-service/middleware"
	"bounty-board-service/services"
	"bounty-board-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	Service *services.UserService
}

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	h := &UserHandler{Service: userService}

	app.Post("/users", h.RegisterUser)
	app.Get("/users/check", h.CheckUser)
	app.Get("/users/:wallet", h.GetUser)
	app.Get("/providers/:wallet", h.GetProvider)

	app.Post("/users/:wallet/avatar", middleware.UserContextMiddleware(), h.UploadAvatar)
}

func (h *UserHandler) RegisterUser(c *fiber.Ctx) error {
	var in services.RegisterUserInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON", "details": err.Error()})
	}

	user, err := h.Service.RegisterUser(c.Context(), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) CheckUser(c *fiber.Ctx) error {
	wallet := c.Query("wallet_address")
	if wallet == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "wallet_address query param is required"})
	}

	exists, role, err := h.Service.CheckUser(c.Context(), wallet)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "exists": exists, "role": role})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.Service.GetByWallet(c.Context(), c.Params("wallet"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (h *UserHandler) GetProvider(c *fiber.Ctx) error {
	provider, err := h.Service.GetProvider(c.Context(), c.Params("wallet"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "provider": provider})
}

// UploadAvatar pushes a profile picture to R2 and stores the CDN URL.
func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("profile_picture")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "profile_picture file is required"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "avatars/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "failed to upload profile picture"})
	}

	if err := h.Service.SetProfilePicture(c.Context(), c.Params("wallet"), url); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "profile_picture": url})
}
