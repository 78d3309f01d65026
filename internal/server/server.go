package server

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rfcarvalho/memoria/internal/config"
	"github.com/rfcarvalho/memoria/internal/database"
	"github.com/rfcarvalho/memoria/internal/ingest"
)

//go:embed templates/*.html
var templateFS embed.FS

var uploadTmpl = template.Must(template.ParseFS(templateFS, "templates/upload.html"))

// Server is the HTTP front end: the JSON API plus the generated pages.
type Server struct {
	cfg    *config.Config
	db     *database.DB
	proc   *ingest.Processor
	router chi.Router
}

// New creates a new Server.
func New(cfg *config.Config, db *database.DB, proc *ingest.Processor) *Server {
	s := &Server{cfg: cfg, db: db, proc: proc, router: chi.NewRouter()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/memorias", s.handleIngestJSON)
		r.Get("/memorias/{id}", s.handleGetMemoria)
		r.Get("/search", s.handleSearch)
		r.Get("/entities/{name}", s.handleSearchEntity)
		r.Get("/clusters/{topic}", s.handleSearchCluster)
		r.Get("/stats", s.handleStats)
		r.Get("/graph", s.handleGraph)
		r.Get("/wordcloud", s.handleWordCloud)
		r.Get("/export", s.handleExport)
	})

	s.router.Get("/", s.handleIndex)
	s.router.Get("/upload", s.handleUploadPage)
	s.router.Handle("/records/*", http.StripPrefix("/records/",
		http.FileServer(http.Dir(s.proc.RecordsDir()))))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	indexPath := s.proc.IndexPath()
	if _, err := os.Stat(indexPath); err != nil {
		if err := s.proc.RefreshIndex(); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
	http.ServeFile(w, r, indexPath)
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := uploadTmpl.Execute(w, nil); err != nil {
		log.Printf("rendering upload page: %v", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("memorias_export_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.cfg.GetDataDir(), name)

	if _, err := s.db.ExportAll(path); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}

// Serve starts the HTTP server on the given port.
func Serve(cfg *config.Config, db *database.DB, proc *ingest.Processor, port int) error {
	srv := New(cfg, db, proc)

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
