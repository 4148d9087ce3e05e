package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/telemetry"
)

type repository interface {
	Create(ctx context.Context, d Device) (Device, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Device, error)
	Get(ctx context.Context, ownerID, deviceID uuid.UUID) (Device, error)
	Delete(ctx context.Context, ownerID, deviceID uuid.UUID) error
}

// sampleSource fetches raw telemetry for a single device.
type sampleSource interface {
	RawSamples(ctx context.Context, deviceKey string, fields []string, from, to time.Time) (telemetry.SampleSet, error)
}

// Service orchestrates device operations.
type Service struct {
	repo    repository
	samples sampleSource
}

// NewService constructs a device service.
func NewService(repo repository, samples sampleSource) *Service {
	return &Service{repo: repo, samples: samples}
}

// Create registers a new device for the owner.
func (s *Service) Create(ctx context.Context, d Device) (Device, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Key = strings.TrimSpace(d.Key)
	if d.Name == "" {
		return Device{}, fmt.Errorf("device name required")
	}
	if d.Key == "" {
		return Device{}, fmt.Errorf("device key required")
	}
	return s.repo.Create(ctx, d)
}

// List returns the owner's active devices.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Device, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one device.
func (s *Service) Get(ctx context.Context, ownerID, deviceID uuid.UUID) (Device, error) {
	return s.repo.Get(ctx, ownerID, deviceID)
}

// Delete soft-deletes a device.
func (s *Service) Delete(ctx context.Context, ownerID, deviceID uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, deviceID)
}

// Samples fetches raw measurement samples for the owner's device over
// [from, to). The device must belong to the requesting user.
func (s *Service) Samples(ctx context.Context, ownerID, deviceID uuid.UUID, fields []string, from, to time.Time) (telemetry.SampleSet, error) {
	d, err := s.repo.Get(ctx, ownerID, deviceID)
	if err != nil {
		return telemetry.SampleSet{}, err
	}

	return s.samples.RawSamples(ctx, d.Key, fields, from, to)
}
