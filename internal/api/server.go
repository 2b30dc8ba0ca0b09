package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"materiais/internal"
	"materiais/internal/config"
)

type Store interface {
	ListMaterials(ctx context.Context, categoria string) ([]internal.CatalogRecord, error)
	GetMaterial(ctx context.Context, referencia string) (*internal.CatalogRecord, error)
	ListImportRuns(ctx context.Context, limit int) ([]internal.ImportRun, error)
	Ping(ctx context.Context) error
}

type Importer interface {
	ImportFile(ctx context.Context, source, filename string, content []byte) (internal.ImportReport, error)
}

type Server struct {
	store          Store
	importer       Importer
	log            zerolog.Logger
	allowedOrigins []string
	maxUpload      int64
}

func NewServer(store Store, importer Importer, cfg config.Config, log zerolog.Logger) *Server {
	maxMB := cfg.UploadMaxMB
	if maxMB <= 0 {
		maxMB = 25
	}
	return &Server{
		store:          store,
		importer:       importer,
		log:            log,
		allowedOrigins: cfg.HTTPAllowedOrigins,
		maxUpload:      int64(maxMB) << 20,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(Recovery(s.log))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/materiais/import", s.importMaterials)
		r.Get("/materiais", s.listMaterials)
		r.Get("/materiais/search", s.searchMaterials)
		r.Get("/materiais/export.xlsx", s.exportMaterials)
		r.Get("/materiais/{referencia}", s.getMaterial)
		r.Get("/imports", s.listImports)
	})

	return r
}
