package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"materiais/internal"
)

type memoryMetadata map[string]string

func (m memoryMetadata) GetMetadata(_ context.Context, key string) (*string, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m memoryMetadata) SetMetadata(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

type fakeDownloader map[string]string

func (f fakeDownloader) Download(_ context.Context, rawURL string) (Download, error) {
	body, ok := f[rawURL]
	if !ok {
		return Download{}, errors.New("not found")
	}
	return Download{URL: rawURL, Filename: "lista.txt", Content: []byte(body)}, nil
}

type countingImporter struct {
	calls  int
	reject bool
}

func (c *countingImporter) ImportFile(_ context.Context, source, filename string, content []byte) (internal.ImportReport, error) {
	c.calls++
	report := internal.ImportReport{RunID: "run", FoundCount: 1}
	if c.reject {
		report.Failure = &internal.ImportFailure{Kind: internal.FailureFormatUnrecognized}
	}
	return report, nil
}

func newTestSync(dl fakeDownloader, imp *countingImporter, urls ...string) (*SyncService, memoryMetadata) {
	meta := memoryMetadata{}
	return &SyncService{store: meta, importer: imp, downloader: dl, urls: urls, log: zerolog.Nop()}, meta
}

func TestSyncSkipsUnchangedDocuments(t *testing.T) {
	imp := &countingImporter{}
	svc, meta := newTestSync(fakeDownloader{"https://a.example/l.txt": "conteudo"}, imp, "https://a.example/l.txt")

	results, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, SyncImported, results[0].Status)
	assert.Contains(t, meta, "pricelist.hash.https://a.example/l.txt")

	results, err = svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncUnchanged, results[0].Status)
	assert.Equal(t, 1, imp.calls)
}

func TestSyncRejectedDocumentIsRetriedNextTime(t *testing.T) {
	imp := &countingImporter{reject: true}
	svc, meta := newTestSync(fakeDownloader{"https://a.example/l.txt": "lixo"}, imp, "https://a.example/l.txt")

	results, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncRejected, results[0].Status)
	assert.Empty(t, meta)

	_, err = svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, imp.calls)
}

func TestSyncReportsDownloadErrorsPerURL(t *testing.T) {
	imp := &countingImporter{}
	svc, _ := newTestSync(fakeDownloader{"https://ok.example/l.txt": "x"}, imp, "https://missing.example/l.txt", "https://ok.example/l.txt")

	results, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SyncFailed, results[0].Status)
	assert.Error(t, results[0].Err)
	assert.Equal(t, SyncImported, results[1].Status)
}
