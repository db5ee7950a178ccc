package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
	Users          repository.UserRepository
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	catalog := app.Group("/catalog", cfg.AuthMiddleware.Handle)
	catalog.Get("/statuses", cfg.Catalog.Statuses)
	catalog.Get("/priorities", cfg.Catalog.Priorities)
	catalog.Get("/categories", cfg.Catalog.Categories)
	catalog.Get("/departments", cfg.Catalog.Departments)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/attachments", cfg.Tickets.UploadAttachment)
	tickets.Get("/:id/attachments/:attachmentID", cfg.Tickets.DownloadAttachment)

	staff := app.Group("/staff/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Patch("/:id", auth.RequirePermission(cfg.Users, domain.PermTicketsManage), cfg.StaffTickets.UpdateTicket)
	staff.Delete("/:id", auth.RequirePermission(cfg.Users, domain.PermTicketsDelete), cfg.StaffTickets.DeleteTicket)
}
