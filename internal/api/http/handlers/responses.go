package handlers

import (
	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

func ticketSummary(t *domain.TicketSummary) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		Subject:      t.Subject,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedBy:    t.CreatedBy,
		AssignedTo:   t.AssignedTo,
		DepartmentID: t.DepartmentID,
		CreatedAt:    t.CreatedAt,
	}
}

func ticketPage(page *service.TicketPage) dto.TicketPageResponse {
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketSummary(&page.Items[i]))
	}
	return dto.TicketPageResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Stats: dto.TicketStatsResponse{
			Total:    page.Stats.Total,
			Open:     page.Stats.Open,
			Pending:  page.Stats.Pending,
			Resolved: page.Stats.Resolved,
			Closed:   page.Stats.Closed,
			Urgent:   page.Stats.Urgent,
			High:     page.Stats.High,
		},
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	t := detail.Ticket
	resp := dto.TicketDetailResponse{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		Subject:         t.Subject,
		Description:     t.Description,
		Status:          detail.Status.Name,
		Priority:        detail.Priority.Name,
		CategoryID:      t.CategoryID,
		DepartmentID:    t.DepartmentID,
		CreatedBy:       t.CreatedBy,
		AssignedTo:      t.AssignedTo,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		FirstResponseAt: t.FirstResponseAt,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
		DueAt:           t.DueAt,
		Messages:        make([]dto.TicketMessageResponse, 0, len(detail.Messages)),
		Attachments:     make([]dto.AttachmentResponse, 0, len(detail.Attachments)),
		Activity:        make([]dto.ActivityLogResponse, 0, len(detail.Activity)),
	}
	if detail.SlaPolicy != nil {
		resp.Sla = &dto.SlaPolicyResponse{
			Name:              detail.SlaPolicy.Name,
			ResponseMinutes:   detail.SlaPolicy.ResponseTime,
			ResolutionMinutes: detail.SlaPolicy.ResolutionTime,
		}
	}
	for i := range detail.Messages {
		resp.Messages = append(resp.Messages, ticketMessageResponse(&detail.Messages[i]))
	}
	for _, a := range detail.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse(&a))
	}
	for _, entry := range detail.Activity {
		resp.Activity = append(resp.Activity, dto.ActivityLogResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			UserName:  entry.UserName,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}

func ticketMessageResponse(m *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:         m.ID,
		AuthorID:   m.UserID,
		AuthorName: m.AuthorName,
		IsInternal: m.IsInternal,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

func attachmentResponse(a *domain.TicketAttachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:        a.ID,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		SizeBytes: a.FileSize,
		CreatedAt: a.UploadedAt,
	}
}
