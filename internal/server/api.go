package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rfcarvalho/memoria/internal/memoria"
)

// response is the JSON envelope shared by every API endpoint.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.Storage.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "invalid upload: " + err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "no file provided"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "only .json files are accepted"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "reading upload: " + err.Error()})
		return
	}

	// Keep a copy of the raw template alongside the processed record.
	if dir := s.cfg.GetTemplatesDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			name := filepath.Base(header.Filename)
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				log.Printf("saving uploaded template %s: %v", name, err)
			}
		}
	}

	id, err := s.proc.Ingest(data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "template processed",
		Data:    map[string]string{"memoria_id": id},
	})
}

func (s *Server) handleIngestJSON(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Storage.MaxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "reading body: " + err.Error()})
		return
	}

	id, err := s.proc.Ingest(data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "template processed",
		Data:    map[string]string{"memoria_id": id},
	})
}

func (s *Server) handleGetMemoria(w http.ResponseWriter, r *http.Request) {
	m, err := s.proc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: m})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	results, err := s.db.SearchRecords(r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: results})
}

func (s *Server) handleSearchEntity(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	results, err := s.db.SearchByEntity(chi.URLParam(r, "name"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: results})
}

func (s *Server) handleSearchCluster(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	results, err := s.db.SearchByCluster(chi.URLParam(r, "topic"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: results})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: stats})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.db.GetGraphData(r.URL.Query().Get("record"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: graph})
}

func (s *Server) handleWordCloud(w http.ResponseWriter, r *http.Request) {
	words, err := s.db.GetWordCloudData()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: words})
}

// queryLimit parses the limit query parameter, rejecting negatives.
// Missing or zero means the store default.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "invalid limit: " + raw})
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// writeError maps the error taxonomy onto status codes: bad input is a 400,
// a missing record is a 404, everything else is an internal failure.
func writeError(w http.ResponseWriter, err error) {
	var perr *memoria.ParseError
	var verr *memoria.ValidationError
	switch {
	case errors.As(err, &perr), errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: err.Error()})
	case errors.Is(err, memoria.ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Success: false, Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Error: "internal error"})
	}
}
