package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler manages requester-facing ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateTicketInput{
		Subject:      req.Subject,
		Description:  req.Description,
		Priority:     req.Priority,
		CategoryID:   req.CategoryID,
		DepartmentID: req.DepartmentID,
	}
	// explicit assignment stays a staff concern
	if actor.IsStaff() {
		input.AssignedTo = req.AssignedTo
	}

	ticket, err := h.service.CreateTicket(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":            ticket.ID,
		"ticket_number": ticket.TicketNumber,
		"due_at":        ticket.DueAt,
		"assigned_to":   ticket.AssignedTo,
	}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.Context(), actor, parseListFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketPage(page)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.Context(), actor, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	message, err := h.service.AddMessage(c.Context(), actor, ticketID, req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(message)})
}

// UploadAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) UploadAttachment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field file is required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	input := service.AttachmentInput{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  file,
	}
	if messageID, err := strconv.ParseInt(c.FormValue("message_id"), 10, 64); err == nil && messageID > 0 {
		input.MessageID = &messageID
	}

	attachment, err := h.service.AddAttachment(c.Context(), actor, ticketID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentID.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	attachmentID, err := paramID(c, "attachmentID")
	if err != nil {
		return err
	}

	attachment, reader, err := h.service.OpenAttachment(c.Context(), actor, ticketID, attachmentID)
	if err != nil {
		return err
	}

	// fasthttp closes the stream once the body has been written
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	if attachment.MimeType != "" {
		c.Set(fiber.HeaderContentType, attachment.MimeType)
	}
	return c.SendStream(reader, int(attachment.FileSize))
}

func requireActor(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, nil)
	}
	return id, nil
}

func parseListFilter(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	if page, err := strconv.Atoi(c.Query("page", "1")); err == nil {
		filter.Page = page
	}
	if dept, err := strconv.ParseInt(c.Query("department_id"), 10, 64); err == nil && dept > 0 {
		filter.DepartmentID = &dept
	}
	if c.Query("assigned") == "me" {
		filter.AssignedToMe = true
	}
	return filter
}
