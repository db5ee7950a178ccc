package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// StaffTicketsHandler exposes the workflow endpoints reserved to
// agents, managers and admins.
type StaffTicketsHandler struct {
	service *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{service: ticketService}
}

// UpdateTicket PATCH /staff/tickets/:id.
func (h *StaffTicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateTicket(c.Context(), actor, ticketID, service.UpdateTicketInput{
		Subject:     req.Subject,
		Description: req.Description,
		StatusID:    req.StatusID,
		PriorityID:  req.PriorityID,
		Category:    service.RefChange{Set: req.CategoryID.Set, Value: req.CategoryID.Value},
		Department:  service.RefChange{Set: req.DepartmentID.Set, Value: req.DepartmentID.Value},
		Assignee:    service.RefChange{Set: req.AssignedTo.Set, Value: req.AssignedTo.Value},
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":          ticket.ID,
		"status_id":   ticket.StatusID,
		"priority_id": ticket.PriorityID,
		"assigned_to": ticket.AssignedTo,
		"resolved_at": ticket.ResolvedAt,
		"closed_at":   ticket.ClosedAt,
		"updated_at":  ticket.UpdatedAt,
	}})
}

// DeleteTicket DELETE /staff/tickets/:id.
func (h *StaffTicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.Context(), actor, ticketID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
