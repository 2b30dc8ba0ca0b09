package listener

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"materiais/internal"
	"materiais/internal/config"
	"materiais/internal/connectors"
	gmailconnector "materiais/internal/connectors/gmail"
	imapconnector "materiais/internal/connectors/imap"
)

const (
	StatusFetched  = "fetched"
	StatusImported = "imported"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

type Store interface {
	connectors.EmailStore
	ListEmailsByStatus(ctx context.Context, status string, limit int) ([]internal.MailRow, error)
	UpdateEmailStatus(ctx context.Context, emailID int, status, importRunID string) error
	SetMetadata(ctx context.Context, key, value string) error
}

type Importer interface {
	ImportFile(ctx context.Context, source, filename string, content []byte) (internal.ImportReport, error)
}

type ConnectorFactory func(ctx context.Context, provider string) (connectors.MailConnector, error)

type Service struct {
	db           Store
	importer     Importer
	cfg          config.Config
	log          zerolog.Logger
	newConnector ConnectorFactory
}

func NewService(db Store, importer Importer, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		importer: importer,
		cfg:      cfg,
		log:      log,
		newConnector: func(ctx context.Context, provider string) (connectors.MailConnector, error) {
			return MakeConnector(ctx, cfg, provider)
		},
	}
}

type CycleResult struct {
	Fetched  int
	Stored   int
	Imported int
	Skipped  int
	Failed   int
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("listener cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.newConnector(ctx, provider)
	if err != nil {
		return CycleResult{}, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFrom, s.cfg.MailListenerFetchMax)
	if err != nil {
		return CycleResult{}, err
	}

	result, err := s.ImportPending(ctx, provider)
	result.Fetched = fetchResult.Fetched
	result.Stored = fetchResult.Stored
	if err != nil {
		return result, err
	}

	_ = s.db.SetMetadata(ctx, "mail.last_cycle."+provider, time.Now().UTC().Format(time.RFC3339))
	s.log.Info().
		Str("provider", provider).
		Int("fetched", result.Fetched).
		Int("stored", result.Stored).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("listener cycle done")
	return result, nil
}

// ImportPending runs every fetched message of provider through the import
// pipeline. A message without a recognisable price list is skipped; one whose
// list could not be imported is marked failed. Only store errors abort.
func (s *Service) ImportPending(ctx context.Context, provider string) (CycleResult, error) {
	pending, err := s.db.ListEmailsByStatus(ctx, StatusFetched, s.cfg.MailListenerProcessBatch)
	if err != nil {
		return CycleResult{}, err
	}

	result := CycleResult{}
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		status, runID := s.importEmail(ctx, email)
		if err := s.db.UpdateEmailStatus(ctx, email.ID, status, runID); err != nil {
			return result, err
		}
		switch status {
		case StatusImported:
			result.Imported++
		case StatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	return result, nil
}

func (s *Service) importEmail(ctx context.Context, email internal.MailRow) (string, string) {
	log := s.log.With().Int("email_id", email.ID).Str("subject", email.Subject).Logger()

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		log.Error().Err(err).Msg("read raw message")
		return StatusFailed, ""
	}

	report, err := s.importer.ImportFile(ctx, "email", sanitizeMessageID(email.MessageID)+".eml", raw)
	if err != nil {
		log.Error().Err(err).Msg("import message")
		return StatusFailed, report.RunID
	}
	return statusForReport(report), report.RunID
}

func statusForReport(report internal.ImportReport) string {
	if report.OK() {
		return StatusImported
	}
	switch report.Failure.Kind {
	case internal.FailureExtractionEmpty, internal.FailureFormatUnrecognized:
		return StatusSkipped
	default:
		return StatusFailed
	}
}

func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
