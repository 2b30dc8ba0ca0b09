package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"materiais/internal"
	"materiais/internal/config"
)

const (
	RunStatusImported = "imported"
	RunStatusRejected = "rejected"
	RunStatusFailed   = "failed"
)

type MaterialWriter interface {
	UpsertMaterials(ctx context.Context, records []internal.CatalogRecord) (internal.BulkWriteResult, error)
}

// MaterialReader is implemented by writers that can read back stored rows.
// The preview is refreshed through it so matched references show their
// original createdAt.
type MaterialReader interface {
	GetMaterial(ctx context.Context, referencia string) (*internal.CatalogRecord, error)
}

type RunRecorder interface {
	InsertImportRun(ctx context.Context, run internal.ImportRun) error
}

type ImportService struct {
	writer   MaterialWriter
	recorder RunRecorder
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
}

// NewImportService wires the pipeline to a store. recorder may be nil.
func NewImportService(writer MaterialWriter, recorder RunRecorder, opts Options, log zerolog.Logger) *ImportService {
	return &ImportService{writer: writer, recorder: recorder, opts: opts, log: log, now: time.Now}
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		IVA:          cfg.ImportIVA,
		Brands:       VendorBrands{CableKm: cfg.VendorCableKmBrand, PriceTable: cfg.VendorPriceTableBrand},
		PreviewLimit: cfg.ImportPreviewLimit,
	}
}

// ImportFile extracts the text of an uploaded document and imports it. An
// unreadable document is reported like an empty one.
func (s *ImportService) ImportFile(ctx context.Context, source, filename string, content []byte) (internal.ImportReport, error) {
	text, err := ExtractText(filename, content)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", filename).Msg("text extraction failed")
		text = ""
	}
	return s.ImportText(ctx, source, filename, text)
}

// ImportText runs detection, parsing and pricing on text and writes the
// resulting records. Rejected documents come back as a report with Failure
// set and a nil error; only a store failure is returned as an error.
func (s *ImportService) ImportText(ctx context.Context, source, filename, text string) (internal.ImportReport, error) {
	start := s.now()
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("source", source).Str("filename", filename).Logger()

	analysis := Analyze(text, s.opts)
	report := internal.ImportReport{
		RunID:      runID,
		Format:     analysis.Format,
		FoundCount: len(analysis.Candidates),
		Preview:    []internal.CatalogRecord{},
	}

	if analysis.Failure != nil {
		report.Failure = analysis.Failure
		log.Info().
			Str("format", string(analysis.Format)).
			Str("error_kind", string(analysis.Failure.Kind)).
			Int("found", report.FoundCount).
			Msg("import rejected")
		s.record(ctx, log, report, RunStatusRejected, source, filename, start)
		return report, nil
	}

	records := make([]internal.CatalogRecord, len(analysis.Records))
	stamp := s.now().UTC()
	for i, rec := range analysis.Records {
		rec.CreatedAt = stamp
		rec.UpdatedAt = stamp
		records[i] = rec
	}

	result, err := s.writer.UpsertMaterials(ctx, records)
	if err != nil {
		report.Failure = &internal.ImportFailure{
			Kind:        internal.FailureStorageWrite,
			Message:     "erro ao gravar materiais",
			SampleLines: []string{},
		}
		log.Error().Err(err).Str("format", string(analysis.Format)).Msg("import write failed")
		s.record(ctx, log, report, RunStatusFailed, source, filename, start)
		return report, fmt.Errorf("upsert materials: %w", err)
	}

	report.Upserted = result.Upserted
	report.Modified = result.Modified
	report.Matched = result.Matched
	report.WriteErrors = result.WriteErrors
	report.Preview = s.storedPreview(ctx, log, Preview(records, s.opts.PreviewLimit))

	log.Info().
		Str("format", string(analysis.Format)).
		Str("rule", analysis.Rule).
		Int("found", report.FoundCount).
		Int("records", len(records)).
		Int("upserted", report.Upserted).
		Int("modified", report.Modified).
		Int("matched", report.Matched).
		Int("write_errors", len(report.WriteErrors)).
		Dur("duration", s.now().Sub(start)).
		Msg("import done")
	s.record(ctx, log, report, RunStatusImported, source, filename, start)
	return report, nil
}

func (s *ImportService) storedPreview(ctx context.Context, log zerolog.Logger, preview []internal.CatalogRecord) []internal.CatalogRecord {
	reader, ok := s.writer.(MaterialReader)
	if !ok {
		return preview
	}
	out := make([]internal.CatalogRecord, len(preview))
	for i, rec := range preview {
		out[i] = rec
		stored, err := reader.GetMaterial(context.WithoutCancel(ctx), rec.Referencia)
		if err != nil {
			log.Warn().Err(err).Str("referencia", rec.Referencia).Msg("read back preview record failed")
			continue
		}
		if stored != nil {
			out[i] = *stored
		}
	}
	return out
}

func (s *ImportService) record(ctx context.Context, log zerolog.Logger, report internal.ImportReport, status, source, filename string, start time.Time) {
	if s.recorder == nil {
		return
	}
	run := internal.ImportRun{
		ID:          report.RunID,
		Source:      source,
		Filename:    filename,
		Format:      report.Format,
		Status:      status,
		Found:       report.FoundCount,
		Upserted:    report.Upserted,
		Modified:    report.Modified,
		Matched:     report.Matched,
		WriteErrors: len(report.WriteErrors),
		DurationMs:  s.now().Sub(start).Milliseconds(),
		CreatedAt:   start.UTC(),
	}
	if report.Failure != nil {
		run.FailureKind = string(report.Failure.Kind)
	}
	// Run bookkeeping must not turn a finished import into a failure.
	if err := s.recorder.InsertImportRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn().Err(err).Msg("record import run failed")
	}
}
