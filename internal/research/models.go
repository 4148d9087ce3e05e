package research

import (
	"time"

	"github.com/google/uuid"
)

// Research is an administrator-run study aggregating consented user data over
// a date range.
type Research struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	URL            *string    `json:"url,omitempty"`
	Institution    *string    `json:"institution,omitempty"`
	TypeOfDataUsed *string    `json:"type_of_data_used,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// DailyBucket holds the aggregated counts for one calendar day across all
// consenting users. Users, Apiaries, Hives and Devices are cumulative as of
// the day; Inspections and Measurements are per-day deltas.
type DailyBucket struct {
	Date         string `json:"date"`
	Users        int64  `json:"users"`
	Apiaries     int64  `json:"apiaries"`
	Hives        int64  `json:"hives"`
	Inspections  int64  `json:"inspections"`
	Devices      int64  `json:"devices"`
	Measurements int64  `json:"measurements"`
}

// Report is the outcome of one aggregation run. Buckets cover every day of
// [StartDate, EndDate) in ascending date order, one bucket per day with no
// gaps; UserIDs lists the users that contributed at least one consenting day.
type Report struct {
	ResearchID uuid.UUID     `json:"research_id"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	UserIDs    []uuid.UUID   `json:"user_ids"`
	Buckets    []DailyBucket `json:"buckets"`
}

// NewestFirst returns a reversed copy of the buckets for display; the stored
// order stays ascending.
func (r Report) NewestFirst() []DailyBucket {
	out := make([]DailyBucket, len(r.Buckets))
	for i, b := range r.Buckets {
		out[len(out)-1-i] = b
	}
	return out
}

// ExportArtifact locates a stored spreadsheet export.
type ExportArtifact struct {
	ObjectName  string    `json:"object_name"`
	SizeBytes   int64     `json:"size_bytes"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
