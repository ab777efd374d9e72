package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// PoliciesHandler manages the admin configuration endpoints.
type PoliciesHandler struct {
	service *service.PolicyService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(policyService *service.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{service: policyService}
}

// CreatePolicy POST /policies.
func (h *PoliciesHandler) CreatePolicy(c *fiber.Ctx) error {
	var req dto.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	policy, err := h.service.CreatePolicy(c.Context(), req.ToDomain())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// GetPolicy GET /policies/:id.
func (h *PoliciesHandler) GetPolicy(c *fiber.Ctx) error {
	policy, err := h.service.GetPolicy(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// ListPolicies GET /policies.
func (h *PoliciesHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.service.ListPolicies(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, dto.NewPolicyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateHolidayCalendar POST /holiday-calendars.
func (h *PoliciesHandler) CreateHolidayCalendar(c *fiber.Ctx) error {
	var req dto.CreateHolidayCalendarRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return apperrors.NewValidationError("invalid date", map[string]any{"date": raw})
		}
		dates = append(dates, day)
	}
	calendar, err := h.service.CreateHolidayCalendar(c.Context(), req.Name, dates)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewHolidayCalendarResponse(calendar)})
}

// GetHolidayCalendar GET /holiday-calendars/:id.
func (h *PoliciesHandler) GetHolidayCalendar(c *fiber.Ctx) error {
	calendar, err := h.service.GetHolidayCalendar(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHolidayCalendarResponse(calendar)})
}

// ReplaceMatrix POST /escalation-matrix. Full replace of the rule set.
func (h *PoliciesHandler) ReplaceMatrix(c *fiber.Ctx) error {
	var req dto.ReplaceMatrixRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	matrix, err := h.service.ReplaceMatrix(c.Context(), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMatrixResponse(matrix)})
}

// GetMatrix GET /escalation-matrix.
func (h *PoliciesHandler) GetMatrix(c *fiber.Ctx) error {
	matrix, err := h.service.GetMatrix(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMatrixResponse(matrix)})
}
