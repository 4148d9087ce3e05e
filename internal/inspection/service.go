package inspection

import (
	"context"

	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, ins Inspection) (Inspection, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Inspection, error)
	Get(ctx context.Context, ownerID, inspectionID uuid.UUID) (Inspection, error)
	Delete(ctx context.Context, ownerID, inspectionID uuid.UUID) error
}

// Service orchestrates inspection operations.
type Service struct {
	repo repository
}

// NewService constructs an inspection service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Create records a new inspection with its items.
func (s *Service) Create(ctx context.Context, ins Inspection) (Inspection, error) {
	return s.repo.Create(ctx, ins)
}

// List returns the owner's active inspections.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Inspection, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one inspection.
func (s *Service) Get(ctx context.Context, ownerID, inspectionID uuid.UUID) (Inspection, error) {
	return s.repo.Get(ctx, ownerID, inspectionID)
}

// Delete soft-deletes an inspection.
func (s *Service) Delete(ctx context.Context, ownerID, inspectionID uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, inspectionID)
}
