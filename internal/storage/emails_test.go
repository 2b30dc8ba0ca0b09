package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"materiais/internal"
)

func TestEmailLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	msg := internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  "<abc@fornecedor.pt>",
		Subject:    "Tabela",
		From:       "vendas@fornecedor.pt",
		ReceivedAt: "2026-03-01T10:00:00Z",
	}
	row, err := db.UpsertEmail(ctx, msg, "hash-1", "/tmp/raw/abc.eml")
	require.NoError(t, err)
	assert.Equal(t, "fetched", row.Status)
	assert.Equal(t, "Tabela", row.Subject)

	msg.Subject = "Tabela nova"
	again, err := db.UpsertEmail(ctx, msg, "hash-2", "/tmp/raw/abc.eml")
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)
	assert.Equal(t, "Tabela nova", again.Subject)
	assert.Equal(t, "hash-2", again.Hash)

	pending, err := db.ListEmailsByStatus(ctx, "fetched", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, db.UpdateEmailStatus(ctx, row.ID, "imported", "run-1"))
	pending, err = db.ListEmailsByStatus(ctx, "fetched", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := db.MustEmailByProviderMessageID(ctx, "imap", "<abc@fornecedor.pt>")
	require.NoError(t, err)
	assert.Equal(t, "imported", got.Status)

	_, err = db.MustEmailByProviderMessageID(ctx, "gmail", "nada")
	assert.Error(t, err)

	none, err := db.GetEmailByProviderMessageID(ctx, "gmail", "nada")
	require.NoError(t, err)
	assert.Nil(t, none)
}
