package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/service"
)

// ReportsHandler serves the SLA compliance report.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// ComplianceReport GET /reports/sla?from=&to= (RFC3339 bounds, both
// optional).
func (h *ReportsHandler) ComplianceReport(c *fiber.Ctx) error {
	var fromPtr, toPtr *time.Time
	if from, ok := parseTime(c.Query("from")); ok {
		fromPtr = &from
	}
	if to, ok := parseTime(c.Query("to")); ok {
		toPtr = &to
	}
	report, err := h.service.ComplianceReport(c.Context(), fromPtr, toPtr)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplianceReportResponse(report)})
}
