package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"materiais/internal"
	"materiais/internal/config"
)

const (
	SyncImported  = "imported"
	SyncUnchanged = "unchanged"
	SyncRejected  = "rejected"
	SyncFailed    = "failed"
)

type Importer interface {
	ImportFile(ctx context.Context, source, filename string, content []byte) (internal.ImportReport, error)
}

type MetadataStore interface {
	GetMetadata(ctx context.Context, key string) (*string, error)
	SetMetadata(ctx context.Context, key, value string) error
}

type Downloader interface {
	Download(ctx context.Context, rawURL string) (Download, error)
}

type SyncResult struct {
	URL    string
	Status string
	Report *internal.ImportReport
	Err    error
}

// SyncService pulls the configured vendor price lists and imports the ones
// whose content changed since the last successful import.
type SyncService struct {
	store      MetadataStore
	importer   Importer
	downloader Downloader
	urls       []string
	log        zerolog.Logger
}

func NewSyncService(store MetadataStore, importer Importer, cfg config.Config, log zerolog.Logger) *SyncService {
	return &SyncService{store: store, importer: importer, downloader: NewClient(cfg), urls: cfg.PriceListURLs, log: log}
}

func (s *SyncService) SyncAll(ctx context.Context) ([]SyncResult, error) {
	out := make([]SyncResult, 0, len(s.urls))
	for _, u := range s.urls {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := s.SyncURL(ctx, u)
		if res.Err != nil {
			s.log.Warn().Err(res.Err).Str("url", u).Msg("price list sync failed")
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *SyncService) SyncURL(ctx context.Context, rawURL string) SyncResult {
	res := SyncResult{URL: rawURL, Status: SyncFailed}

	dl, err := s.downloader.Download(ctx, rawURL)
	if err != nil {
		res.Err = err
		return res
	}

	sum := sha256.Sum256(dl.Content)
	hash := hex.EncodeToString(sum[:])
	hashKey := "pricelist.hash." + rawURL
	last, err := s.store.GetMetadata(ctx, hashKey)
	if err != nil {
		res.Err = err
		return res
	}
	if last != nil && *last == hash {
		res.Status = SyncUnchanged
		return res
	}

	report, err := s.importer.ImportFile(ctx, "url", dl.Filename, dl.Content)
	res.Report = &report
	if err != nil {
		res.Err = err
		return res
	}
	if !report.OK() {
		res.Status = SyncRejected
		return res
	}

	res.Status = SyncImported
	if err := s.store.SetMetadata(ctx, hashKey, hash); err != nil {
		res.Err = err
		return res
	}
	_ = s.store.SetMetadata(ctx, "pricelist.last_sync."+rawURL, time.Now().UTC().Format(time.RFC3339))
	return res
}
