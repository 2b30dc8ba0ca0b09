package storage

import (
	"context"

	"materiais/internal"
)

func (d *DB) InsertImportRun(ctx context.Context, run internal.ImportRun) error {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO import_runs (
  id, source, filename, format, status, failureKind,
  found, upserted, modified, matched, writeErrors, durationMs, createdAt
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Source, run.Filename, string(run.Format), run.Status, run.FailureKind,
		run.Found, run.Upserted, run.Modified, run.Matched, run.WriteErrors, run.DurationMs, formatTime(run.CreatedAt))
	return err
}

func (d *DB) ListImportRuns(ctx context.Context, limit int) ([]internal.ImportRun, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT id, source, filename, format, status, failureKind,
       found, upserted, modified, matched, writeErrors, durationMs, createdAt
FROM import_runs ORDER BY createdAt DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRun
	for rows.Next() {
		var run internal.ImportRun
		var format, createdAt string
		if err := rows.Scan(
			&run.ID, &run.Source, &run.Filename, &format, &run.Status, &run.FailureKind,
			&run.Found, &run.Upserted, &run.Modified, &run.Matched, &run.WriteErrors, &run.DurationMs, &createdAt,
		); err != nil {
			return nil, err
		}
		run.Format = internal.FormatTag(format)
		run.CreatedAt = parseTime(createdAt)
		out = append(out, run)
	}
	return out, rows.Err()
}
