package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/sweeper"
)

// AdminHandler exposes operational actions.
type AdminHandler struct {
	sweeper *sweeper.Sweeper
}

// NewAdminHandler constructs handler.
func NewAdminHandler(sw *sweeper.Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sw}
}

// TriggerSweep POST /admin/sweep. Runs one sweep cycle immediately; the
// shared lock still applies, so a concurrent scheduled sweep wins.
func (h *AdminHandler) TriggerSweep(c *fiber.Ctx) error {
	if err := h.sweeper.Sweep(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "completed"}})
}
