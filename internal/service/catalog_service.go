package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// CatalogService serves the reference data ticket forms are built
// from.
type CatalogService struct {
	lookups     repository.LookupRepository
	departments repository.DepartmentRepository
}

// NewCatalogService builds the service.
func NewCatalogService(lookups repository.LookupRepository, departments repository.DepartmentRepository) *CatalogService {
	return &CatalogService{lookups: lookups, departments: departments}
}

func (s *CatalogService) Statuses(ctx context.Context) ([]domain.TicketStatus, error) {
	return s.lookups.ListActiveStatuses(ctx)
}

func (s *CatalogService) Priorities(ctx context.Context) ([]domain.TicketPriority, error) {
	return s.lookups.ListPriorities(ctx)
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.TicketCategory, error) {
	return s.lookups.ListActiveCategories(ctx)
}

func (s *CatalogService) Departments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListActive(ctx)
}
