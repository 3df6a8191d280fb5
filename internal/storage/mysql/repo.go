package mysql

import (
	"context"
	"database/sql"

	"ean_hotel/internal/domain"
)

// maxReason matches the reason column width.
const maxReason = 512

// Repo records failed retrievals and lookups. It never stores decoded
// reservations.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Record(ctx context.Context, kind, subject, reason string) error {
	if len(reason) > maxReason {
		reason = reason[:maxReason]
	}
	_, err := r.db.ExecContext(ctx, upsertFailureSQL, kind, subject, reason)
	return err
}

// Recent lists the latest failures of a kind, newest first.
func (r *Repo) Recent(ctx context.Context, kind string, limit int) ([]domain.Failure, error) {
	rows, err := r.db.QueryContext(ctx, listFailuresSQL, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Failure
	for rows.Next() {
		var f domain.Failure
		var reason sql.NullString
		if err := rows.Scan(&f.Kind, &f.Subject, &reason, &f.Hits, &f.SeenAt); err != nil {
			return nil, err
		}
		f.Reason = reason.String
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
