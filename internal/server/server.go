// Package server exposes a local backend directory over the same HTTP API
// the client reads, so a directory of generated articles can be shared
// without the synthesis backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/leonezhu/readalong/internal/directory"
	"github.com/leonezhu/readalong/transcript"
)

const shutdownTimeout = 5 * time.Second

// Server serves articles and audio from a LocalDirectory.
type Server struct {
	dir *directory.LocalDirectory
	mux *chi.Mux
}

// New builds the router for dir.
func New(dir *directory.LocalDirectory) *Server {
	s := &Server{dir: dir, mux: chi.NewRouter()}

	s.mux.Use(chimiddleware.RequestID)
	s.mux.Use(chimiddleware.RealIP)
	s.mux.Use(requestLogger)
	s.mux.Use(chimiddleware.Recoverer)
	s.mux.Use(cors)

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/articles", s.listArticles)
		r.Get("/articles/{id}", s.getArticle)
		r.Get("/audio/{filename}", s.getAudio)
		r.Post("/tts", s.synthesize)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving articles", "addr", addr, "dir", s.dir.Root())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.dir.ListArticles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if articles == nil {
		articles = []transcript.Summary{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.dir.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) getAudio(w http.ResponseWriter, r *http.Request) {
	path, err := s.dir.AudioPath(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

// synthesize answers the TTS endpoint; this server only shares existing
// articles.
func (s *Server) synthesize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]any{
		"success": false,
		"error":   "speech synthesis is not available on this server",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, transcript.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, transcript.ErrInvalidArticle):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "request_id", chimiddleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, map[string]any{"success": false, "error": transcript.UserMessage(err)})
}
