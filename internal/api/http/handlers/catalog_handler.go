package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CatalogHandler serves the reference data used by ticket forms.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// Statuses GET /catalog/statuses.
func (h *CatalogHandler) Statuses(c *fiber.Ctx) error {
	statuses, err := h.service.Statuses(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, dto.StatusResponse{ID: s.ID, Name: s.Name, Title: s.Title, ColorHex: s.ColorHex})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Priorities GET /catalog/priorities.
func (h *CatalogHandler) Priorities(c *fiber.Ctx) error {
	priorities, err := h.service.Priorities(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.PriorityResponse, 0, len(priorities))
	for _, p := range priorities {
		items = append(items, dto.PriorityResponse{ID: p.ID, Name: p.Name, Level: p.Level, ColorHex: p.ColorHex})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Categories GET /catalog/categories.
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		items = append(items, dto.CategoryResponse{ID: cat.ID, Name: cat.Name, Title: cat.Title})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Departments GET /catalog/departments.
func (h *CatalogHandler) Departments(c *fiber.Ctx) error {
	departments, err := h.service.Departments(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		items = append(items, dto.DepartmentResponse{ID: d.ID, Name: d.Name, ShortCode: d.ShortCode})
	}
	return c.JSON(fiber.Map{"data": items})
}
