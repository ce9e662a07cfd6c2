package handlers

import (
	"strconv"

	"bounty-board-service/middleware"
	"bounty-board-service/models"
	"bounty-board-service/services"

	"github.com/gofiber/fiber/v2"
)

type BountyHandler struct {
	Service *services.BountyService
}

// SetupBountyRoutes wires the bounty lifecycle endpoints. The /internal group
// is the write contract consumed by the escrow sync job; gateway auth is
// enforced globally in main.
func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService) {
	h := &BountyHandler{Service: bountyService}

	// 🔓 Read side
	app.Get("/bounties", h.ListBounties)
	app.Get("/bounties/:contract_address", h.GetBounty)
	app.Get("/bounties/:contract_address/winner", h.GetWinner)

	// 🔐 Mutations require the Gateway's wallet auth context
	userCtx := middleware.UserContextMiddleware()
	app.Post("/bounties", userCtx, h.CreateBounty)
	app.Post("/bounties/:contract_address/hunters", userCtx, h.JoinBounty)
	app.Post("/bounties/:contract_address/submissions", userCtx, h.SubmitWork)

	internal := app.Group("/internal")
	internal.Post("/bounties/:contract_address/winner", h.ResolveWinner)
	internal.Patch("/bounties/:contract_address/status", h.UpdateBountyStatus)
}

func (h *BountyHandler) CreateBounty(c *fiber.Ctx) error {
	var in services.CreateBountyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON", "details": err.Error()})
	}

	bounty, err := h.Service.CreateBounty(c.Context(), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Bounty created successfully",
		"bounty":  bounty,
	})
}

func (h *BountyHandler) GetBounty(c *fiber.Ctx) error {
	bounty, err := h.Service.GetByContractAddress(c.Context(), c.Params("contract_address"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "bounty": bounty})
}

func (h *BountyHandler) ListBounties(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "page must be an integer"})
	}
	pageSize, err := strconv.Atoi(c.Query("page_size", "10"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "page_size must be an integer"})
	}

	result, err := h.Service.ListBounties(c.Context(), services.ListBountiesInput{
		BountyProvider: c.Query("bounty_provider"),
		Status:         c.Query("status"),
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"bounties":      result.Items,
		"current_page":  result.CurrentPage,
		"total_pages":   result.TotalPages,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"has_prev_page": result.HasPrevPage,
	})
}

// GetWinner returns a bare JSON body: null while unresolved, otherwise the
// normalized 0x address string. Consumed by the escrow frontend verbatim.
func (h *BountyHandler) GetWinner(c *fiber.Ctx) error {
	winner, err := h.Service.GetWinner(c.Context(), c.Params("contract_address"))
	if err != nil {
		if kindOf(err) == services.KindNotFound {
			return c.Status(404).JSON(nil)
		}
		return serviceError(c, err)
	}
	if winner == nil {
		return c.JSON(nil)
	}
	return c.JSON(*winner)
}

func (h *BountyHandler) JoinBounty(c *fiber.Ctx) error {
	var in services.JoinBountyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON", "details": err.Error()})
	}

	entry, err := h.Service.JoinBounty(c.Context(), c.Params("contract_address"), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Joined bounty successfully",
		"hunter":  entry,
	})
}

func (h *BountyHandler) SubmitWork(c *fiber.Ctx) error {
	var in services.SubmitWorkInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON", "details": err.Error()})
	}

	entry, err := h.Service.SubmitWork(c.Context(), c.Params("contract_address"), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Submission recorded",
		"hunter":  entry,
	})
}

func (h *BountyHandler) ResolveWinner(c *fiber.Ctx) error {
	var req struct {
		WinnerWallet string `json:"winner_wallet"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON", "details": err.Error()})
	}

	bounty, err := h.Service.ResolveWinner(c.Context(), c.Params("contract_address"), req.WinnerWallet)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Winner resolved",
		"bounty":  bounty,
	})
}

func (h *BountyHandler) UpdateBountyStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON", "details": err.Error()})
	}

	contractAddress := c.Params("contract_address")
	var err error
	switch req.Status {
	case models.BountyStatusUnderReview:
		err = h.Service.AdvanceToUnderReview(c.Context(), contractAddress)
	case models.BountyStatusClosed:
		err = h.Service.CloseBounty(c.Context(), contractAddress)
	case models.BountyStatusCancelled:
		err = h.Service.CancelBounty(c.Context(), contractAddress)
	default:
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "status must be UNDER_REVIEW, CLOSED or CANCELLED"})
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Status updated", "status": req.Status})
}
