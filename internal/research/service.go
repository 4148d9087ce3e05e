package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/consent"
)

type repository interface {
	Create(ctx context.Context, res Research) (Research, error)
	List(ctx context.Context, keyword string) ([]Research, error)
	Get(ctx context.Context, researchID uuid.UUID) (Research, error)
	Update(ctx context.Context, res Research) (Research, error)
	Delete(ctx context.Context, researchID uuid.UUID) error
}

type consentStore interface {
	Append(ctx context.Context, researchID, userID uuid.UUID, consented bool) (consent.Event, error)
	GrantedUserIDs(ctx context.Context, researchID uuid.UUID, before time.Time) ([]consent.GrantedUser, error)
}

// exporter renders a computed report plus raw per-user records into a stored
// spreadsheet artifact. Implemented by the export package.
type exporter interface {
	Export(ctx context.Context, res Research, rep Report) (ExportArtifact, error)
}

// Service orchestrates research studies and their reports.
type Service struct {
	repo       repository
	consents   consentStore
	aggregator *Aggregator
	exporter   exporter
	nowFunc    func() time.Time
}

// NewService constructs a research service.
func NewService(repo repository, consents consentStore, aggregator *Aggregator, exporter exporter) *Service {
	return &Service{
		repo:       repo,
		consents:   consents,
		aggregator: aggregator,
		exporter:   exporter,
		nowFunc:    time.Now,
	}
}

// Create registers a new research study.
func (s *Service) Create(ctx context.Context, res Research) (Research, error) {
	if err := validateRange(res.StartDate, res.EndDate); err != nil {
		return Research{}, err
	}
	return s.repo.Create(ctx, res)
}

// List returns active studies matching the keyword.
func (s *Service) List(ctx context.Context, keyword string) ([]Research, error) {
	return s.repo.List(ctx, keyword)
}

// Get fetches one study.
func (s *Service) Get(ctx context.Context, researchID uuid.UUID) (Research, error) {
	return s.repo.Get(ctx, researchID)
}

// Update modifies a study.
func (s *Service) Update(ctx context.Context, res Research) (Research, error) {
	if err := validateRange(res.StartDate, res.EndDate); err != nil {
		return Research{}, err
	}
	return s.repo.Update(ctx, res)
}

// Delete soft-deletes a study.
func (s *Service) Delete(ctx context.Context, researchID uuid.UUID) error {
	return s.repo.Delete(ctx, researchID)
}

// RecordConsent appends a consent event for the requesting user.
func (s *Service) RecordConsent(ctx context.Context, researchID, userID uuid.UUID, consented bool) (consent.Event, error) {
	if _, err := s.repo.Get(ctx, researchID); err != nil {
		return consent.Event{}, err
	}
	return s.consents.Append(ctx, researchID, userID, consented)
}

// GrantedUsers lists the users eligible for report selection.
func (s *Service) GrantedUsers(ctx context.Context, researchID uuid.UUID) ([]consent.GrantedUser, error) {
	res, err := s.repo.Get(ctx, researchID)
	if err != nil {
		return nil, err
	}
	_, end, err := s.reportRange(res)
	if err != nil {
		return nil, err
	}
	return s.consents.GrantedUserIDs(ctx, researchID, end)
}

// Report runs the daily aggregation for the study over the selected users.
// With an empty selection the first granted user (by name) is used, matching
// the report page default.
func (s *Service) Report(ctx context.Context, researchID uuid.UUID, userIDs []uuid.UUID) (Report, error) {
	res, err := s.repo.Get(ctx, researchID)
	if err != nil {
		return Report{}, err
	}

	start, end, err := s.reportRange(res)
	if err != nil {
		return Report{}, err
	}

	if len(userIDs) == 0 {
		granted, err := s.consents.GrantedUserIDs(ctx, researchID, end)
		if err != nil {
			return Report{}, fmt.Errorf("list granted users: %w", err)
		}
		if len(granted) == 0 {
			return Report{}, ErrNoConsentingUsers
		}
		userIDs = []uuid.UUID{granted[0].ID}
	}

	return s.aggregator.Run(ctx, researchID, start, end, userIDs)
}

// Export runs the report and renders it into a stored spreadsheet artifact.
func (s *Service) Export(ctx context.Context, researchID uuid.UUID, userIDs []uuid.UUID) (ExportArtifact, error) {
	res, err := s.repo.Get(ctx, researchID)
	if err != nil {
		return ExportArtifact{}, err
	}

	rep, err := s.Report(ctx, researchID, userIDs)
	if err != nil {
		return ExportArtifact{}, err
	}

	artifact, err := s.exporter.Export(ctx, res, rep)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	return artifact, nil
}

// reportRange normalizes the study's stored dates into a half-open day range,
// clipping the end to the current day when the study is still running.
func (s *Service) reportRange(res Research) (time.Time, time.Time, error) {
	if res.StartDate.IsZero() || res.EndDate.IsZero() {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}

	start := consent.Day(res.StartDate)
	end := consent.Day(res.EndDate)

	// the current day is still in range while the study runs
	today := consent.Day(s.nowFunc())
	if end.After(today) {
		end = today.AddDate(0, 0, 1)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}

	return start, end, nil
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return ErrInvalidDateRange
	}
	return nil
}
