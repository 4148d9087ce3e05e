package research

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openbeelab/beemon/internal/apiary"
	"github.com/openbeelab/beemon/internal/consent"
	"github.com/openbeelab/beemon/internal/device"
	"github.com/openbeelab/beemon/internal/hive"
	"github.com/openbeelab/beemon/internal/inspection"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- fakes ----

type fakeStores struct {
	consents     map[uuid.UUID][]consent.Event
	apiaries     map[uuid.UUID][]apiary.Apiary
	hives        map[uuid.UUID][]hive.Hive
	inspections  map[uuid.UUID][]inspection.Inspection
	devices      map[uuid.UUID][]device.Device
	measurements map[string]int64
	telemetryHit bool
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		consents:     make(map[uuid.UUID][]consent.Event),
		apiaries:     make(map[uuid.UUID][]apiary.Apiary),
		hives:        make(map[uuid.UUID][]hive.Hive),
		inspections:  make(map[uuid.UUID][]inspection.Inspection),
		devices:      make(map[uuid.UUID][]device.Device),
		measurements: make(map[string]int64),
	}
}

func (f *fakeStores) History(ctx context.Context, researchID, userID uuid.UUID, before time.Time) ([]consent.Event, error) {
	var out []consent.Event
	for _, ev := range f.consents[userID] {
		if ev.CreatedAt.Before(before) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStores) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]apiary.Apiary, error) {
	return f.apiaries[ownerID], nil
}

type fakeHives struct{ f *fakeStores }

func (s fakeHives) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]hive.Hive, error) {
	return s.f.hives[ownerID], nil
}

type fakeInspections struct{ f *fakeStores }

func (s fakeInspections) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]inspection.Inspection, error) {
	return s.f.inspections[ownerID], nil
}

type fakeDevices struct{ f *fakeStores }

func (s fakeDevices) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]device.Device, error) {
	return s.f.devices[ownerID], nil
}

type fakeTelemetry struct{ f *fakeStores }

func (s fakeTelemetry) DailyCounts(ctx context.Context, deviceKeys []string, from, to time.Time) map[string]int64 {
	s.f.telemetryHit = true
	return s.f.measurements
}

// failingTelemetry simulates a broken time-series store: per the degradation
// contract it always reports zero measurements.
type failingTelemetry struct{}

func (failingTelemetry) DailyCounts(ctx context.Context, deviceKeys []string, from, to time.Time) map[string]int64 {
	return map[string]int64{}
}

func newAggregator(f *fakeStores) *Aggregator {
	return NewAggregator(f, f, fakeHives{f}, fakeInspections{f}, fakeDevices{f}, fakeTelemetry{f}, nil)
}

func bucketByDate(t *testing.T, rep Report, day string) DailyBucket {
	t.Helper()
	for _, b := range rep.Buckets {
		if b.Date == day {
			return b
		}
	}
	t.Fatalf("no bucket for %s", day)
	return DailyBucket{}
}

// --- tests ----

func TestRunCalendarHasOneBucketPerDay(t *testing.T) {
	f := newFakeStores()
	agg := newAggregator(f)

	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 31), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(rep.Buckets) != 30 {
		t.Fatalf("expected 30 buckets, got %d", len(rep.Buckets))
	}
	for i, b := range rep.Buckets {
		want := date(2021, 1, 1).AddDate(0, 0, i).Format("2006-01-02")
		if b.Date != want {
			t.Fatalf("bucket %d: expected date %s, got %s", i, want, b.Date)
		}
	}
}

func TestRunSpecExample(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{{UserID: userID, Consent: true, CreatedAt: date(2021, 1, 1)}}
	f.hives[userID] = []hive.Hive{{OwnerID: userID, CreatedAt: date(2021, 1, 1)}}
	f.inspections[userID] = []inspection.Inspection{
		{OwnerID: userID, CreatedAt: date(2021, 1, 2)},
		{OwnerID: userID, CreatedAt: date(2021, 1, 3)},
	}
	f.devices[userID] = []device.Device{{OwnerID: userID, Key: "dev1", CreatedAt: date(2021, 1, 1)}}
	f.measurements = map[string]int64{"2021-01-02": 5}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 4), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	expected := []DailyBucket{
		{Date: "2021-01-01", Users: 1, Hives: 1, Devices: 1, Inspections: 0, Measurements: 0},
		{Date: "2021-01-02", Users: 1, Hives: 1, Devices: 1, Inspections: 1, Measurements: 5},
		{Date: "2021-01-03", Users: 1, Hives: 1, Devices: 1, Inspections: 1, Measurements: 0},
	}
	if len(rep.Buckets) != len(expected) {
		t.Fatalf("expected %d buckets, got %d", len(expected), len(rep.Buckets))
	}
	for i, want := range expected {
		if rep.Buckets[i] != want {
			t.Fatalf("bucket %d: expected %+v, got %+v", i, want, rep.Buckets[i])
		}
	}
	if len(rep.UserIDs) != 1 || rep.UserIDs[0] != userID {
		t.Fatalf("expected contributing user list [%s], got %v", userID, rep.UserIDs)
	}
}

func TestRunSingleGrantContributesThroughEnd(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{{UserID: userID, Consent: true, CreatedAt: date(2021, 1, 5)}}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 10), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, b := range rep.Buckets {
		consenting := b.Date >= "2021-01-05"
		if consenting && b.Users != 1 {
			t.Fatalf("day %s: expected users=1, got %d", b.Date, b.Users)
		}
		if !consenting && b.Users != 0 {
			t.Fatalf("day %s: expected users=0 before grant, got %d", b.Date, b.Users)
		}
	}
}

func TestRunGrantThenRevoke(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{
		{UserID: userID, Consent: true, CreatedAt: date(2021, 1, 3)},
		{UserID: userID, Consent: false, CreatedAt: date(2021, 1, 6)},
	}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 10), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, b := range rep.Buckets {
		consenting := b.Date >= "2021-01-03" && b.Date < "2021-01-06"
		if consenting != (b.Users == 1) {
			t.Fatalf("day %s: expected consenting=%v, users=%d", b.Date, consenting, b.Users)
		}
	}
}

func TestRunSingleRevokeContributesNothing(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{{UserID: userID, Consent: false, CreatedAt: date(2021, 1, 2)}}
	f.hives[userID] = []hive.Hive{{OwnerID: userID, CreatedAt: date(2021, 1, 1)}}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 10), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, b := range rep.Buckets {
		if b != (DailyBucket{Date: b.Date}) {
			t.Fatalf("day %s: expected all-zero bucket, got %+v", b.Date, b)
		}
	}
	if len(rep.UserIDs) != 0 {
		t.Fatalf("expected no contributing users, got %v", rep.UserIDs)
	}
}

func TestRunUserWithoutHistoryIsSkipped(t *testing.T) {
	f := newFakeStores()
	agg := newAggregator(f)

	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 5), []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(rep.UserIDs) != 0 {
		t.Fatalf("expected no contributing users, got %v", rep.UserIDs)
	}
	if f.telemetryHit {
		t.Fatalf("telemetry must not be queried for a skipped user")
	}
}

func TestRunAssetCountsAreCumulative(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{{UserID: userID, Consent: true, CreatedAt: date(2021, 1, 1)}}
	f.apiaries[userID] = []apiary.Apiary{
		{OwnerID: userID, CreatedAt: date(2021, 1, 1)},
		{OwnerID: userID, CreatedAt: date(2021, 1, 3)},
	}
	f.hives[userID] = []hive.Hive{
		{OwnerID: userID, CreatedAt: date(2021, 1, 2)},
		{OwnerID: userID, CreatedAt: date(2021, 1, 2)},
	}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 5), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var prevApiaries, prevHives int64
	for _, b := range rep.Buckets {
		if b.Apiaries < prevApiaries || b.Hives < prevHives {
			t.Fatalf("cumulative counts regressed on %s: %+v", b.Date, b)
		}
		prevApiaries, prevHives = b.Apiaries, b.Hives
	}

	if got := bucketByDate(t, rep, "2021-01-04"); got.Apiaries != 2 || got.Hives != 2 {
		t.Fatalf("expected final cumulative counts 2/2, got %+v", got)
	}
	if got := bucketByDate(t, rep, "2021-01-01"); got.Apiaries != 1 || got.Hives != 0 {
		t.Fatalf("expected day-one counts 1/0, got %+v", got)
	}
}

func TestRunInspectionsArePerDayDeltas(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{{UserID: userID, Consent: true, CreatedAt: date(2021, 1, 1)}}
	f.inspections[userID] = []inspection.Inspection{
		{OwnerID: userID, CreatedAt: time.Date(2021, 1, 2, 9, 0, 0, 0, time.UTC)},
		{OwnerID: userID, CreatedAt: time.Date(2021, 1, 2, 18, 30, 0, 0, time.UTC)},
	}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 5), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := bucketByDate(t, rep, "2021-01-02"); got.Inspections != 2 {
		t.Fatalf("expected 2 inspections on their day, got %d", got.Inspections)
	}
	if got := bucketByDate(t, rep, "2021-01-03"); got.Inspections != 0 {
		t.Fatalf("inspections must not accumulate, got %d on the next day", got.Inspections)
	}
}

func TestRunTelemetryFailureIsolation(t *testing.T) {
	f := newFakeStores()
	userID := uuid.New()
	f.consents[userID] = []consent.Event{{UserID: userID, Consent: true, CreatedAt: date(2021, 1, 1)}}
	f.hives[userID] = []hive.Hive{{OwnerID: userID, CreatedAt: date(2021, 1, 1)}}
	f.devices[userID] = []device.Device{{OwnerID: userID, Key: "dev1", CreatedAt: date(2021, 1, 1)}}

	agg := NewAggregator(f, f, fakeHives{f}, fakeInspections{f}, fakeDevices{f}, failingTelemetry{}, nil)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 4), []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, b := range rep.Buckets {
		if b.Measurements != 0 {
			t.Fatalf("expected zero measurements under telemetry failure, got %+v", b)
		}
		if b.Users != 1 || b.Hives != 1 || b.Devices != 1 {
			t.Fatalf("other columns must stay populated, got %+v", b)
		}
	}
}

func TestRunMultipleUsersContributionsAdd(t *testing.T) {
	f := newFakeStores()
	alice, bob := uuid.New(), uuid.New()
	f.consents[alice] = []consent.Event{{UserID: alice, Consent: true, CreatedAt: date(2021, 1, 1)}}
	f.consents[bob] = []consent.Event{{UserID: bob, Consent: true, CreatedAt: date(2021, 1, 2)}}
	f.hives[alice] = []hive.Hive{{OwnerID: alice, CreatedAt: date(2021, 1, 1)}}
	f.hives[bob] = []hive.Hive{{OwnerID: bob, CreatedAt: date(2021, 1, 1)}}

	agg := newAggregator(f)
	rep, err := agg.Run(context.Background(), uuid.New(), date(2021, 1, 1), date(2021, 1, 3), []uuid.UUID{alice, bob})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := bucketByDate(t, rep, "2021-01-01"); got.Users != 1 || got.Hives != 1 {
		t.Fatalf("day one: expected 1 user / 1 hive, got %+v", got)
	}
	if got := bucketByDate(t, rep, "2021-01-02"); got.Users != 2 || got.Hives != 2 {
		t.Fatalf("day two: expected 2 users / 2 hives, got %+v", got)
	}
	if len(rep.UserIDs) != 2 {
		t.Fatalf("expected 2 contributing users, got %v", rep.UserIDs)
	}
}

func TestNewestFirstReversesWithoutMutating(t *testing.T) {
	rep := Report{Buckets: []DailyBucket{{Date: "2021-01-01"}, {Date: "2021-01-02"}}}
	rev := rep.NewestFirst()

	if rev[0].Date != "2021-01-02" || rev[1].Date != "2021-01-01" {
		t.Fatalf("unexpected reversed order: %v", rev)
	}
	if rep.Buckets[0].Date != "2021-01-01" {
		t.Fatalf("stored order must stay ascending")
	}
}
