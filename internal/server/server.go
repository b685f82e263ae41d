package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/adnsv/xlstream/internal/report"
	"github.com/adnsv/xlstream/xl"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server serves report downloads. Every request builds a fresh workbook.
type Server struct {
	Builder *report.Builder
	Logger  *slog.Logger
}

func (s *Server) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/report/{name}.xlsx", s.handleSheet).Methods(http.MethodGet)

	return withRequestLogging(s.log(), r)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log().Info("starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"sheets": len(s.Builder.Config.Sheets),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	wb, err := s.Builder.Build(r.Context())
	if err != nil {
		s.log().Error("build failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "build_failed"})
		return
	}
	s.send(w, wb, s.Builder.Config.FileName())
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(mux.Vars(r)["name"])
	wb, err := s.Builder.BuildSheet(r.Context(), name)
	if errors.Is(err, xl.ErrUnknownSheet) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "sheet_not_found"})
		return
	}
	if err != nil {
		s.log().Error("build failed", "sheet", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "build_failed"})
		return
	}
	s.send(w, wb, name+".xlsx")
}

// send streams the package. Headers are committed before the archive is
// written, so a failure halfway only shows up in the log.
func (s *Server) send(w http.ResponseWriter, wb *xl.Workbook, filename string) {
	defer wb.Close()

	h := w.Header()
	h.Set("Content-Type", xlsxContentType)
	h.Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	n, err := wb.WriteTo(w)
	if err != nil {
		s.log().Error("download failed", "file", filename, "written", n, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
