// Package server exposes stored records over HTTP for browser-based
// inspection. It is plumbing around the engine: all decoding goes through
// the record assembler, and every failure is reported per record rather
// than failing the whole listing.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/record"
	"github.com/roach88/regrest/internal/store"
)

//go:embed static
var staticFS embed.FS

// Server serves the record visualization API and UI.
type Server struct {
	st      store.Store
	asm     *record.Assembler
	session string
	started time.Time
	router  chi.Router
}

// New creates a server over the given store.
func New(st store.Store) *Server {
	s := &Server{
		st:      st,
		asm:     record.NewAssembler(codec.NewResolutionContext()),
		session: uuid.NewString(),
		started: time.Now().UTC(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))
	r.Get("/api/records", s.handleRecords)
	r.Get("/api/stats", s.handleStats)
	r.Delete("/api/records", s.handleDeleteAll)
	r.Delete("/api/records/{id}", s.handleDelete)

	s.router = r
	return s
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Handler returns the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// recordView is the decoded record shape returned by /api/records.
type recordView struct {
	Module    string `json:"module"`
	Function  string `json:"function"`
	Args      any    `json:"args"`
	Kwargs    any    `json:"kwargs"`
	Result    any    `json:"result"`
	Timestamp string `json:"timestamp"`
	RecordID  string `json:"record_id"`
}

// errorView describes a record that could not be loaded or decoded.
type errorView struct {
	Key            string   `json:"key"`
	RecordID       string   `json:"record_id,omitempty"`
	Module         string   `json:"module,omitempty"`
	Function       string   `json:"function,omitempty"`
	ErrorType      string   `json:"error_type"`
	ErrorMessage   string   `json:"error_message"`
	SuggestedFixes []string `json:"suggested_fixes,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(staticFS, "static/index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, errorViews, err := s.loadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		view, ev := s.decodeView(rec)
		if ev != nil {
			errorViews = append(errorViews, *ev)
			continue
		}
		views = append(views, view)
	}

	writeJSON(w, map[string]any{
		"records": views,
		"errors":  errorViews,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	records, errorViews, err := s.loadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	perModule := map[string]int{}
	for _, rec := range records {
		perModule[rec.Module]++
	}

	writeJSON(w, map[string]any{
		"total_records": len(records),
		"error_records": len(errorViews),
		"modules":       perModule,
		"session_id":    s.session,
		"started_at":    s.started.Format(time.RFC3339),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, _, err := s.loadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, rec := range records {
		if rec.RecordID == id {
			if err := s.st.Delete(rec.Key()); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]any{"deleted": id})
			return
		}
	}

	writeError(w, http.StatusNotFound, fmt.Sprintf("record %q not found", id))
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	keys, err := s.st.List("")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	count := 0
	for _, key := range keys {
		if err := s.st.Delete(key); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		count++
	}
	writeJSON(w, map[string]any{"deleted": count})
}

// loadAll reads every stored record; unparseable files become error views.
func (s *Server) loadAll() ([]record.Record, []errorView, error) {
	keys, err := s.st.List("")
	if err != nil {
		return nil, nil, err
	}

	var records []record.Record
	errorViews := []errorView{}

	for _, key := range keys {
		data, found, err := s.st.Get(key)
		if err != nil || !found {
			continue
		}
		rec, err := record.Parse(data)
		if err != nil {
			errorViews = append(errorViews, errorView{
				Key:          key,
				ErrorType:    "ParseError",
				ErrorMessage: err.Error(),
				SuggestedFixes: []string{
					"Delete this record",
					"Check the record file for corruption",
				},
			})
			continue
		}
		records = append(records, rec)
	}
	return records, errorViews, nil
}

// decodeView decodes one record for display, converting decode failures
// into an error view with actionable fixes.
func (s *Server) decodeView(rec record.Record) (recordView, *errorView) {
	args, err := s.asm.DecodeArgs(rec)
	if err == nil {
		var kwargs map[string]any
		if kwargs, err = s.asm.DecodeKwargs(rec); err == nil {
			var result any
			if result, err = s.asm.DecodeResult(rec); err == nil {
				return recordView{
					Module:    rec.Module,
					Function:  rec.Function,
					Args:      args,
					Kwargs:    kwargs,
					Result:    result,
					Timestamp: rec.Timestamp.Format(time.RFC3339),
					RecordID:  rec.RecordID,
				}, nil
			}
		}
	}

	ev := errorView{
		Key:          rec.Key(),
		RecordID:     rec.RecordID,
		Module:       rec.Module,
		Function:     rec.Function,
		ErrorType:    "DecodeError",
		ErrorMessage: err.Error(),
		SuggestedFixes: []string{
			"Delete this record",
			"Re-record with update mode enabled",
		},
	}
	if name := codec.UnresolvedTypeName(err); name != "" {
		ev.ErrorType = "UnresolvedType"
		ev.SuggestedFixes = append(
			[]string{fmt.Sprintf("Register type %q (or an alias for it) in the resolution context", name)},
			ev.SuggestedFixes...,
		)
	}
	return recordView{}, &ev
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	// Headers are already sent by the time Encode can fail, so the error
	// is unreportable here.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
