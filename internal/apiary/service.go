package apiary

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, a Apiary) (Apiary, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Apiary, error)
	Get(ctx context.Context, ownerID, apiaryID uuid.UUID) (Apiary, error)
	Delete(ctx context.Context, ownerID, apiaryID uuid.UUID) error
}

// Service orchestrates apiary operations.
type Service struct {
	repo repository
}

// NewService constructs an apiary service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new apiary for the owner.
func (s *Service) Create(ctx context.Context, a Apiary) (Apiary, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return Apiary{}, fmt.Errorf("apiary name required")
	}
	return s.repo.Create(ctx, a)
}

// List returns the owner's active apiaries.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Apiary, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one apiary.
func (s *Service) Get(ctx context.Context, ownerID, apiaryID uuid.UUID) (Apiary, error) {
	return s.repo.Get(ctx, ownerID, apiaryID)
}

// Delete soft-deletes an apiary.
func (s *Service) Delete(ctx context.Context, ownerID, apiaryID uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, apiaryID)
}
