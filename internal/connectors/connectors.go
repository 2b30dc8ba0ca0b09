package connectors

import (
	"context"

	"materiais/internal"
)

// MailConnector pulls raw vendor messages from a mailbox. from narrows the
// search to one sender when set.
type MailConnector interface {
	FetchInbox(ctx context.Context, label, from string, max int) ([]internal.FetchedMailMessage, error)
}
