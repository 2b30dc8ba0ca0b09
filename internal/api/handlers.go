package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"materiais/internal/catalog"
	"materiais/internal/logger"
	"materiais/internal/pipeline"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	defaultRunsLimit   = 50
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// importMaterials accepts a multipart upload in the "file" field. Business
// rejections answer 422 with the report so the caller sees the sample lines.
func (s *Server) importMaterials(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "ficheiro demasiado grande")
			return
		}
		WriteError(w, http.StatusBadRequest, "pedido multipart inválido")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "campo 'file' em falta")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "não foi possível ler o ficheiro")
		return
	}

	report, err := s.importer.ImportFile(r.Context(), "upload", header.Filename, content)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("import failed")
		WriteJSON(w, http.StatusInternalServerError, report)
		return
	}
	if !report.OK() {
		WriteJSON(w, http.StatusUnprocessableEntity, report)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) listMaterials(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListMaterials(r.Context(), strings.TrimSpace(r.URL.Query().Get("categoria")))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if records == nil {
		WriteJSON(w, http.StatusOK, []any{})
		return
	}
	WriteJSON(w, http.StatusOK, records)
}

func (s *Server) searchMaterials(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "parâmetro 'q' em falta")
		return
	}
	limit := queryInt(r, "limit", defaultSearchLimit)
	if limit <= 0 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}

	records, err := s.store.ListMaterials(r.Context(), "")
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, catalog.BuildIndex(records).Search(query, limit))
}

func (s *Server) getMaterial(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "referencia")
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}

	rec, err := s.store.GetMaterial(r.Context(), ref)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if rec == nil {
		WriteError(w, http.StatusNotFound, "material não encontrado")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) exportMaterials(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListMaterials(r.Context(), strings.TrimSpace(r.URL.Query().Get("categoria")))
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	filename := fmt.Sprintf("materiais_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := pipeline.WriteMaterialsXLSX(w, records); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("export failed")
	}
}

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRunsLimit)
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	runs, err := s.store.ListImportRuns(r.Context(), limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if runs == nil {
		WriteJSON(w, http.StatusOK, []any{})
		return
	}
	WriteJSON(w, http.StatusOK, runs)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	WriteError(w, http.StatusInternalServerError, "internal server error")
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
