// Package server exposes a browser over HTTP.
//
//	GET /list/{path}          JSON listing of every entry
//	GET /listimg/{path}       JSON listing of images
//	GET /archive_file/{path}  raw content of an archive entry
//	GET /files/{path}         raw content of a file under the root
//
// A path addresses a location inside an archive with a double slash, e.g.
// /list/books/book.zip//chapter1.
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crazy-max/imgplayer/internal/browser"
	"github.com/crazy-max/imgplayer/internal/metrics"
	"github.com/crazy-max/imgplayer/pkg/errdefs"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server routes HTTP requests to a browser
type Server struct {
	browser *browser.Browser
	router  *mux.Router
	opts    Options
}

// Options represents server options
type Options struct {
	// Index is an HTML page served at /, nothing is served there if empty
	Index string
	// Metrics exposes Prometheus metrics at /metrics
	Metrics bool
	// Logger used for request logs
	Logger zerolog.Logger
}

// New creates new server instance
func New(b *browser.Browser, opts Options) *Server {
	s := &Server{
		browser: b,
		// paths must not be cleaned, the archive delimiter is a double slash
		router: mux.NewRouter().SkipClean(true),
		opts:   opts,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	if s.opts.Metrics {
		s.router.Use(metrics.Middleware)
		s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/list/{path:.*}", s.handleList(false)).Methods(http.MethodGet)
	s.router.HandleFunc("/listimg/{path:.*}", s.handleList(true)).Methods(http.MethodGet)
	s.router.HandleFunc("/archive_file/{path:.*}", s.handleArchiveFile).Methods(http.MethodGet, http.MethodHead)
	s.router.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(s.browser.Root())))).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.opts.Index == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.opts.Index)
}

func (s *Server) handleList(imageOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.browser.List(r.Context(), mux.Vars(r)["path"], imageOnly)
		if err != nil {
			s.sendError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			s.opts.Logger.Warn().Err(err).Msg("Cannot write listing")
		}
	}
}

func (s *Server) handleArchiveFile(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		s.handleArchiveFileHead(w, r)
		return
	}

	data, ctype, err := s.browser.ReadArchiveEntry(r.Context(), mux.Vars(r)["path"])
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	// a nil value keeps ServeContent from sniffing a type
	w.Header()["Content-Type"] = nil
	if ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	if s.opts.Metrics {
		metrics.RecordArchiveEntry(len(data))
	}
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
}

// handleArchiveFileHead answers from the entry header, the content is not read
func (s *Server) handleArchiveFileHead(w http.ResponseWriter, r *http.Request) {
	size, ctype, err := s.browser.StatArchiveEntry(r.Context(), mux.Vars(r)["path"])
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	w.Header()["Content-Type"] = nil
	if ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	ev := s.opts.Logger.Debug()
	if status >= http.StatusInternalServerError {
		ev = s.opts.Logger.Error()
	}
	ev.Err(err).Str("url", r.URL.Path).Int("status", status).Msg("Request failed")
	http.Error(w, http.StatusText(status), status)
}

// StatusCode maps an error to the HTTP status sent to the client
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errdefs.IsInvalidPath(err), errdefs.IsNotADirectory(err):
		return http.StatusBadRequest
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.opts.Logger.Debug().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}
