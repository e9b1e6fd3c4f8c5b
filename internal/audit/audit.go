package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kt-primus/einsatzplanung/internal/ids"
)

const (
	ActionAssign = "assign"
	ActionClear  = "clear"
)

// Entry is one grid edit.
type Entry struct {
	ID                  string    `json:"id"`
	Actor               string    `json:"actor"`
	Action              string    `json:"action"`
	UID                 string    `json:"uid"`
	Date                string    `json:"date"`
	ShiftTypeID         string    `json:"shiftTypeId,omitempty"`
	PreviousShiftTypeID string    `json:"previousShiftTypeId,omitempty"`
	At                  time.Time `json:"at"`
}

// Repository stores entries in the assignment_audit table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record fills in ID and At when they are empty.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = ids.NewAt(e.At)
	}

	query := `
		INSERT INTO assignment_audit (
			id, actor_uid, action, uid, date, shift_type_id, previous_shift_type_id, at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Actor, e.Action, e.UID, e.Date,
		nullString(e.ShiftTypeID), nullString(e.PreviousShiftTypeID), e.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListRange returns entries for cells dated from..to inclusive, newest
// first.
func (r *Repository) ListRange(ctx context.Context, from, to string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT id, actor_uid, action, uid, date, shift_type_id, previous_shift_type_id, at
		FROM assignment_audit
		WHERE date >= $1 AND date <= $2
		ORDER BY at DESC, id DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e             Entry
			shift, before sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.UID, &e.Date, &shift, &before, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ShiftTypeID = shift.String
		e.PreviousShiftTypeID = before.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
