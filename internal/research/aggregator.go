package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/apiary"
	"github.com/openbeelab/beemon/internal/consent"
	"github.com/openbeelab/beemon/internal/device"
	"github.com/openbeelab/beemon/internal/hive"
	"github.com/openbeelab/beemon/internal/inspection"
	"github.com/openbeelab/beemon/internal/metrics"
	"go.uber.org/zap"
)

type consentHistory interface {
	History(ctx context.Context, researchID, userID uuid.UUID, before time.Time) ([]consent.Event, error)
}

type apiaryLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]apiary.Apiary, error)
}

type hiveLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]hive.Hive, error)
}

type inspectionLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]inspection.Inspection, error)
}

type deviceLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]device.Device, error)
}

type telemetryCounter interface {
	DailyCounts(ctx context.Context, deviceKeys []string, from, to time.Time) map[string]int64
}

// Aggregator folds per-user asset and telemetry counts into a shared
// calendar, honoring each user's consent windows. One report run is a single
// synchronous computation; users are folded sequentially and their
// contributions commute, so no locking is involved.
type Aggregator struct {
	consents    consentHistory
	apiaries    apiaryLister
	hives       hiveLister
	inspections inspectionLister
	devices     deviceLister
	telemetry   telemetryCounter
	logger      *zap.Logger
}

// NewAggregator constructs an Aggregator over the given stores.
func NewAggregator(
	consents consentHistory,
	apiaries apiaryLister,
	hives hiveLister,
	inspections inspectionLister,
	devices deviceLister,
	telemetry telemetryCounter,
	logger *zap.Logger,
) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		consents:    consents,
		apiaries:    apiaries,
		hives:       hives,
		inspections: inspections,
		devices:     devices,
		telemetry:   telemetry,
		logger:      logger,
	}
}

// Run computes the daily report for [start, end) over the selected users.
// Both bounds must be midnight UTC with start < end; the caller validates and
// clips the range beforehand. Every day of the range gets a bucket even when
// no user consented on it.
func (a *Aggregator) Run(ctx context.Context, researchID uuid.UUID, start, end time.Time, userIDs []uuid.UUID) (Report, error) {
	defer func(t0 time.Time) {
		metrics.ReportRuns.Inc()
		metrics.ReportDuration.Observe(time.Since(t0).Seconds())
	}(time.Now())

	start = consent.Day(start)
	end = consent.Day(end)

	days := calendar(start, end)
	buckets := make([]DailyBucket, len(days))
	for i, day := range days {
		buckets[i].Date = day.Format("2006-01-02")
	}

	report := Report{
		ResearchID: researchID,
		StartDate:  start,
		EndDate:    end,
		Buckets:    buckets,
	}

	for _, userID := range userIDs {
		contributed, err := a.foldUser(ctx, researchID, userID, days, buckets, end)
		if err != nil {
			return Report{}, err
		}
		if contributed {
			report.UserIDs = append(report.UserIDs, userID)
		}
	}

	return report, nil
}

// foldUser adds one user's per-day contribution into the shared buckets.
// Returns false when the user has no consent history or can never consent.
func (a *Aggregator) foldUser(ctx context.Context, researchID, userID uuid.UUID, days []time.Time, buckets []DailyBucket, end time.Time) (bool, error) {
	events, err := a.consents.History(ctx, researchID, userID, end)
	if err != nil {
		return false, fmt.Errorf("consent history for user %s: %w", userID, err)
	}
	if len(events) == 0 {
		return false, nil
	}

	windows := consent.BuildWindows(events, end)
	if len(windows) == 0 {
		return false, nil
	}

	apiaries, err := a.apiaries.ListByOwner(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list apiaries for user %s: %w", userID, err)
	}
	hives, err := a.hives.ListByOwner(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list hives for user %s: %w", userID, err)
	}
	inspections, err := a.inspections.ListByOwner(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list inspections for user %s: %w", userID, err)
	}
	devices, err := a.devices.ListByOwner(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list devices for user %s: %w", userID, err)
	}

	var measurements map[string]int64
	if len(devices) > 0 {
		keys := make([]string, 0, len(devices))
		for _, d := range devices {
			keys = append(keys, d.Key)
		}
		// telemetry spans the consent history, not just the report range
		measurements = a.telemetry.DailyCounts(ctx, keys, windows[0].From, end)
	}

	cursor := consent.NewCursor(windows)
	var apiaryIdx, hiveIdx, deviceIdx, inspectionIdx int
	consented := false

	for i, day := range days {
		nextDay := day.AddDate(0, 0, 1)

		// cumulative pointers advance every day, consenting or not
		for apiaryIdx < len(apiaries) && apiaries[apiaryIdx].CreatedAt.Before(nextDay) {
			apiaryIdx++
		}
		for hiveIdx < len(hives) && hives[hiveIdx].CreatedAt.Before(nextDay) {
			hiveIdx++
		}
		for deviceIdx < len(devices) && devices[deviceIdx].CreatedAt.Before(nextDay) {
			deviceIdx++
		}

		// per-day delta for inspections created within this calendar day
		var inspectionsToday int64
		for inspectionIdx < len(inspections) && inspections[inspectionIdx].CreatedAt.Before(nextDay) {
			if !inspections[inspectionIdx].CreatedAt.Before(day) {
				inspectionsToday++
			}
			inspectionIdx++
		}

		if !cursor.Consenting(day) {
			continue
		}
		consented = true

		b := &buckets[i]
		b.Users++
		b.Apiaries += int64(apiaryIdx)
		b.Hives += int64(hiveIdx)
		b.Devices += int64(deviceIdx)
		b.Inspections += inspectionsToday
		b.Measurements += measurements[b.Date]
	}

	return consented, nil
}

func calendar(start, end time.Time) []time.Time {
	var days []time.Time
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
