package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Tickets         *handlers.TicketsHandler
	Policies        *handlers.PoliciesHandler
	Reports         *handlers.ReportsHandler
	Admin           *handlers.AdminHandler
	AuthMiddleware  *auth.AuthMiddleware
	Metrics         *observability.Metrics
	AdminAPIKeyHash string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAgent())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Patch("/:id/status", cfg.Tickets.TransitionTicket)
	tickets.Patch("/:id/pause", cfg.Tickets.PauseTicket)
	tickets.Patch("/:id/resume", cfg.Tickets.ResumeTicket)
	tickets.Post("/:id/force-close", auth.RequireAdmin(), cfg.Tickets.ForceCloseTicket)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireAgent())
	reports.Get("/sla", cfg.Reports.ComplianceReport)

	policies := app.Group("/policies", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	policies.Post("", cfg.Policies.CreatePolicy)
	policies.Get("", cfg.Policies.ListPolicies)
	policies.Get("/:id", cfg.Policies.GetPolicy)

	calendars := app.Group("/holiday-calendars", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	calendars.Post("", cfg.Policies.CreateHolidayCalendar)
	calendars.Get("/:id", cfg.Policies.GetHolidayCalendar)

	matrix := app.Group("/escalation-matrix", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	matrix.Post("", cfg.Policies.ReplaceMatrix)
	matrix.Get("", cfg.Policies.GetMatrix)

	// sweep trigger uses an API key so operators can call it without a JWT
	app.Post("/admin/sweep", auth.RequireAPIKey(cfg.AdminAPIKeyHash), cfg.Admin.TriggerSweep)
}
