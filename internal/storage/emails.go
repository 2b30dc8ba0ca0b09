package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"materiais/internal"
)

const mailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func (d *DB) UpsertEmail(ctx context.Context, msg internal.FetchedMailMessage, hash, rawRef string) (internal.MailRow, error) {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, 'fetched', ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawRef)
	if err != nil {
		return internal.MailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(ctx, msg.Provider, msg.MessageID)
	if err != nil {
		return internal.MailRow{}, err
	}
	if row == nil {
		return internal.MailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(ctx context.Context, provider, messageID string) (*internal.MailRow, error) {
	row, err := scanMail(d.conn.QueryRowContext(ctx, `SELECT `+mailColumns+` FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustEmailByProviderMessageID(ctx context.Context, provider, messageID string) (internal.MailRow, error) {
	row, err := d.GetEmailByProviderMessageID(ctx, provider, messageID)
	if err != nil {
		return internal.MailRow{}, err
	}
	if row == nil {
		return internal.MailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListEmailsByStatus(ctx context.Context, status string, limit int) ([]internal.MailRow, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT `+mailColumns+`
FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MailRow
	for rows.Next() {
		row, err := scanMail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateEmailStatus moves a message along fetched -> imported|skipped|failed
// and links it to the import run that handled it, if any.
func (d *DB) UpdateEmailStatus(ctx context.Context, emailID int, status, importRunID string) error {
	_, err := d.conn.ExecContext(ctx, `
UPDATE emails SET status = ?, importRunId = NULLIF(?, ''), updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, status, importRunID, emailID)
	return err
}

func scanMail(row rowScanner) (internal.MailRow, error) {
	var r internal.MailRow
	var subject, sender, receivedAt sql.NullString
	if err := row.Scan(&r.ID, &r.Provider, &r.MessageID, &subject, &sender, &receivedAt, &r.Hash, &r.Status, &r.RawRef); err != nil {
		return internal.MailRow{}, err
	}
	r.Subject = subject.String
	r.Sender = sender.String
	r.ReceivedAt = receivedAt.String
	return r, nil
}
