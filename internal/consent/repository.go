package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// Repository provides database access to consent events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append records a new consent event for the research/user pair.
func (r *Repository) Append(ctx context.Context, researchID, userID uuid.UUID, consented bool) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO consent_events (research_id, user_id, consent)
VALUES ($1, $2, $3)
RETURNING id, research_id, user_id, consent, created_at;`

	var ev Event
	err := r.pool.QueryRow(ctx, query, researchID, userID, consented).Scan(
		&ev.ID, &ev.ResearchID, &ev.UserID, &ev.Consent, &ev.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Event{}, ErrEventConflict
		}
		return Event{}, fmt.Errorf("append consent event: %w", err)
	}

	return ev, nil
}

// History returns the user's consent events with created_at before the cutoff,
// ascending. An empty result means the user has no consent history and must be
// skipped by callers; there is no default consent.
func (r *Repository) History(ctx context.Context, researchID, userID uuid.UUID, before time.Time) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, research_id, user_id, consent, created_at
FROM consent_events
WHERE research_id = $1 AND user_id = $2 AND created_at < $3
ORDER BY created_at ASC;`

	rows, err := r.pool.Query(ctx, query, researchID, userID, before)
	if err != nil {
		return nil, fmt.Errorf("query consent history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.ResearchID, &ev.UserID, &ev.Consent, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan consent event: %w", err)
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// GrantedUserIDs lists users who granted consent at least once before the
// cutoff, ordered by display name.
func (r *Repository) GrantedUserIDs(ctx context.Context, researchID uuid.UUID, before time.Time) ([]GrantedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT u.id, COALESCE(u.display_name, u.email)
FROM consent_events ce
JOIN users u ON u.id = ce.user_id
WHERE ce.research_id = $1 AND ce.created_at < $2
GROUP BY u.id, u.display_name, u.email
HAVING bool_or(ce.consent)
ORDER BY COALESCE(u.display_name, u.email) ASC;`

	rows, err := r.pool.Query(ctx, query, researchID, before)
	if err != nil {
		return nil, fmt.Errorf("query granted users: %w", err)
	}
	defer rows.Close()

	var users []GrantedUser
	for rows.Next() {
		var u GrantedUser
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan granted user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
