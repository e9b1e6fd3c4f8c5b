package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("archive entry not found")

// Record is one stored export. Data is only populated by Get.
type Record struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Format      string    `json:"format"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Data        []byte    `json:"-"`
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository keeps exports in the plan_archive table.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, rec Record) error {
	const q = `
insert into plan_archive (id, year, month, format, file_name, content_type, size_bytes, created_by, created_at, data)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.db.Exec(ctx, q,
		rec.ID, rec.Year, rec.Month, rec.Format, rec.FileName, rec.ContentType,
		len(rec.Data), rec.CreatedBy, rec.CreatedAt, rec.Data,
	)
	if err != nil {
		return fmt.Errorf("insert archive entry: %w", err)
	}
	return nil
}

// List returns metadata of the newest entries, optionally limited to one
// year (year 0 means all).
func (r *Repository) List(ctx context.Context, year, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
select id, year, month, format, file_name, content_type, size_bytes, created_by, created_at
from plan_archive
where $1 = 0 or year = $1
order by year desc, month desc, created_at desc
limit $2;
`
	rows, err := r.db.Query(ctx, q, year, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 16)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Year, &rec.Month, &rec.Format, &rec.FileName,
			&rec.ContentType, &rec.Size, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	const q = `
select id, year, month, format, file_name, content_type, size_bytes, created_by, created_at, data
from plan_archive
where id = $1;
`
	var rec Record
	err := r.db.QueryRow(ctx, q, id).Scan(&rec.ID, &rec.Year, &rec.Month, &rec.Format, &rec.FileName,
		&rec.ContentType, &rec.Size, &rec.CreatedBy, &rec.CreatedAt, &rec.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get archive entry: %w", err)
	}
	return &rec, nil
}
