package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent; it runs on every start.
var schema = []string{
	`create table if not exists assignment_audit (
	id                     text primary key,
	actor_uid              text not null,
	action                 text not null,
	uid                    text not null,
	date                   text not null,
	shift_type_id          text,
	previous_shift_type_id text,
	at                     timestamptz not null
)`,
	`create index if not exists assignment_audit_date_idx on assignment_audit (date, at desc)`,
	`create table if not exists plan_archive (
	id           text primary key,
	year         integer not null,
	month        integer not null check (month between 1 and 12),
	format       text not null,
	file_name    text not null,
	content_type text not null,
	size_bytes   integer not null,
	created_by   text not null,
	created_at   timestamptz not null,
	data         bytea not null
)`,
	`create index if not exists plan_archive_month_idx on plan_archive (year desc, month desc, created_at desc)`,
}

// EnsureSchema creates the audit and archive tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return tx.Commit()
}
