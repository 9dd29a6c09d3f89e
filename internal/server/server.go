// Package server exposes report generation, the history and the exports over
// HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thywilljoshua/reportgen/internal/ai"
	"github.com/thywilljoshua/reportgen/internal/generate"
	"github.com/thywilljoshua/reportgen/internal/history"
	"github.com/thywilljoshua/reportgen/internal/metrics"
	"github.com/thywilljoshua/reportgen/internal/render"
	"github.com/thywilljoshua/reportgen/internal/report"
)

// maxBodyBytes caps a generation request body.
const maxBodyBytes = 64 << 10

type Server struct {
	router  *chi.Mux
	svc     *generate.Service
	fetcher render.ImageFetcher
	logger  *slog.Logger
}

type Options func(*Server)

func WithLogger(logger *slog.Logger) Options {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithImageFetcher lets PDF exports embed remote figure images.
func WithImageFetcher(f render.ImageFetcher) Options {
	return func(s *Server) {
		s.fetcher = f
	}
}

func New(svc *generate.Service, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(s.accessLogger)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/reports", func(r chi.Router) {
		r.Post("/", s.handleGenerate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/preview", s.handleExport(render.FormatHTML, false))
			r.Get("/export.pdf", s.handleExport(render.FormatPDF, true))
			r.Get("/export.md", s.handleExport(render.FormatMarkdown, true))
			r.Get("/export.html", s.handleExport(render.FormatHTML, true))
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func (s *Server) accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	cfg := report.DefaultConfiguration()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&cfg); err != nil {
		s.writeError(w, r, http.StatusBadRequest, goerr.Wrap(err, "invalid request body"))
		return
	}

	res, err := s.svc.Run(r.Context(), cfg)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	out := report.SavedReport{
		Topic:   res.Config.Topic,
		Content: res.Content,
		Style:   res.Config.ReportStyle,
		Date:    time.Now().UTC(),
		Config:  res.Config,
		Images:  res.Assets,
	}
	if res.Saved != nil {
		out = *res.Saved
	}
	s.writeJSON(w, r, http.StatusCreated, out)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, reports)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res.Saved)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(format render.Format, attachment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.svc.Open(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}

		exp, err := render.ForFormat(format, s.fetcher)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}

		// nothing is sent until the export has succeeded
		in := res.RenderInput()
		var buf bytes.Buffer
		if _, err := exp.Export(r.Context(), in, &buf); err != nil {
			s.writeError(w, r, http.StatusInternalServerError,
				goerr.Wrap(err, "export failed", goerr.V("format", format), goerr.V("id", res.Saved.ID)))
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if attachment {
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
				"filename": render.Filename(in, format),
			}))
		}
		if _, err := buf.WriteTo(w); err != nil {
			s.logger.Warn("failed to send export", "format", format, "id", res.Saved.ID, "error", err)
			return
		}
		metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, report.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, generate.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal response", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
