package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"materiais/internal"
	"materiais/internal/catalog"
	"materiais/internal/config"
	"materiais/internal/pipeline"
	"materiais/internal/storage"
)

const barcodeList = "Ref. Designação Preço Cód. Barras\n" +
	"70922 TBIInterruptor simples 1,59 € 5601234567890 10 21,90,70, 50,30 Branco\n" +
	"71001 Tomada schuko 16A 3,25 € 5601234567892 5 21,90,70 Marfim\n"

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "materiais.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	importer := pipeline.NewImportService(db, db, pipeline.DefaultOptions(), zerolog.Nop())
	return NewServer(db, importer, config.Config{UploadMaxMB: 1}, zerolog.Nop()), db
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/materiais/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestImportAndQuery(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, uploadRequest(t, "file", "catalogo.txt", []byte(barcodeList)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[internal.ImportReport](t, rec)
	assert.Equal(t, internal.FormatBarcode, report.Format)
	assert.Equal(t, 2, report.FoundCount)
	assert.Equal(t, 2, report.Upserted)
	require.Len(t, report.Preview, 2)
	assert.Equal(t, 1.956, report.Preview[0].PrecoVenda)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]internal.CatalogRecord](t, rec), 2)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais?categoria=tomadas", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	sockets := decode[[]internal.CatalogRecord](t, rec)
	require.Len(t, sockets, 1)
	assert.Equal(t, "71001", sockets[0].Referencia)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais/70922%20TBI", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[internal.CatalogRecord](t, rec)
	assert.Equal(t, "Interruptor simples", got.Nome)
	assert.Equal(t, 23.0, got.IVA)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais/00000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais/search?q=70922+TBI", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[[]catalog.Hit](t, rec)
	require.Len(t, hits, 1)
	assert.Equal(t, catalog.ReasonReferencia, hits[0].Reason)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]internal.ImportRun](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, "upload", runs[0].Source)
	assert.Equal(t, "catalogo.txt", runs[0].Filename)
}

func TestImportRejectedDocument(t *testing.T) {
	s, db := newTestServer(t)

	rec := serve(s, uploadRequest(t, "file", "carta.txt", []byte("Exmos. Senhores\nSegue a proposta.\n")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	report := decode[internal.ImportReport](t, rec)
	require.NotNil(t, report.Failure)
	assert.Equal(t, internal.FailureFormatUnrecognized, report.Failure.Kind)
	assert.Equal(t, []string{"Exmos. Senhores", "Segue a proposta."}, report.Failure.SampleLines)

	n, err := db.CountMaterials(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportBadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, uploadRequest(t, "documento", "catalogo.txt", []byte(barcodeList)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/materiais/import", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyListsAreArrays(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/api/materiais", "/api/imports"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestExportXLSX(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "file", "catalogo.txt", []byte(barcodeList))).Code)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "materiais_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("materiais")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

type failingImporter struct{}

func (failingImporter) ImportFile(context.Context, string, string, []byte) (internal.ImportReport, error) {
	return internal.ImportReport{
		Failure: &internal.ImportFailure{Kind: internal.FailureStorageWrite, SampleLines: []string{}},
	}, errors.New("database is locked")
}

type panickingStore struct {
	Store
}

func (panickingStore) ListMaterials(context.Context, string) ([]internal.CatalogRecord, error) {
	panic("boom")
}

func TestImportStorageFailure(t *testing.T) {
	_, db := newTestServer(t)
	s := NewServer(db, failingImporter{}, config.Config{}, zerolog.Nop())

	rec := serve(s, uploadRequest(t, "file", "catalogo.txt", []byte(barcodeList)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	report := decode[internal.ImportReport](t, rec)
	require.NotNil(t, report.Failure)
	assert.Equal(t, internal.FailureStorageWrite, report.Failure.Kind)
}

func TestRecoveryAnswers500(t *testing.T) {
	_, db := newTestServer(t)
	s := NewServer(panickingStore{Store: db}, failingImporter{}, config.Config{}, zerolog.Nop())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/materiais", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
