// internal/audit/audit.go
//
// Form-attempt audit trail.
//
// Context
// -------
// Every Submit on a form controller ends in one of four outcomes.  The
// controller hands each outcome to a Recorder so operators can answer "how
// often does signup fail upstream?" without scraping logs.  Field values are
// never recorded, only the form ID, outcome, and the user-facing message.
//
// Schema (MySQL):
//
//	form_attempt (id PK AUTO_INCREMENT, form_id, outcome, message, attempted_at)
//
// Notes
// -----
// • Recorder errors are logged by the caller and never reach the form.
// • Oxford commas, two spaces after periods.
package audit

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Outcome names how one Submit call ended.
type Outcome string

const (
	OutcomeInvalid   Outcome = "invalid"   // validation failed, nothing sent
	OutcomeSucceeded Outcome = "succeeded" // submission function returned nil
	OutcomeFailed    Outcome = "failed"    // submission function failed
	OutcomeBusy      Outcome = "busy"      // rejected, a submit was in flight
)

// Attempt is one audit row.
type Attempt struct {
	FormID      string    `db:"form_id"`
	Outcome     Outcome   `db:"outcome"`
	Message     string    `db:"message"`
	AttemptedAt time.Time `db:"attempted_at"`
}

// Recorder persists attempts.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

// Nop discards every attempt.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Attempt) error { return nil }

/*──────────────────────────── SQL store ───────────────────────────────────*/

// Store writes attempts to the form_attempt table.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open pool.  The caller owns db.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Record implements Recorder.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	const q = `INSERT INTO form_attempt (form_id, outcome, message, attempted_at)
               VALUES (:form_id, :outcome, :message, :attempted_at)`

	a.AttemptedAt = a.AttemptedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, q, a)
	return err
}

// Counts returns attempts per outcome for formID since the given time.
func (s *Store) Counts(ctx context.Context, formID string, since time.Time) (map[Outcome]int, error) {
	const q = `SELECT outcome, COUNT(*) AS n
                 FROM form_attempt
                WHERE form_id = ? AND attempted_at >= ?
                GROUP BY outcome`

	rows, err := s.db.QueryxContext(ctx, q, formID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Outcome]int, 4)
	for rows.Next() {
		var (
			o Outcome
			n int
		)
		if err := rows.Scan(&o, &n); err != nil {
			return nil, err
		}
		out[o] = n
	}
	return out, rows.Err()
}
