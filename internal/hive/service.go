package hive

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, h Hive) (Hive, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Hive, error)
	Get(ctx context.Context, ownerID, hiveID uuid.UUID) (Hive, error)
	Delete(ctx context.Context, ownerID, hiveID uuid.UUID) error
}

// Service orchestrates hive operations.
type Service struct {
	repo repository
}

// NewService constructs a hive service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new hive for the owner.
func (s *Service) Create(ctx context.Context, h Hive) (Hive, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return Hive{}, fmt.Errorf("hive name required")
	}
	return s.repo.Create(ctx, h)
}

// List returns the owner's active hives.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Hive, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one hive.
func (s *Service) Get(ctx context.Context, ownerID, hiveID uuid.UUID) (Hive, error) {
	return s.repo.Get(ctx, ownerID, hiveID)
}

// Delete soft-deletes a hive.
func (s *Service) Delete(ctx context.Context, ownerID, hiveID uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, hiveID)
}
