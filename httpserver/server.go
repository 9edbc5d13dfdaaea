// Package httpserver exposes the ranking and the running session over HTTP
// and a websocket.
//
// There is one shared session. Anyone who can reach the session endpoints or
// the websocket may steer and restart it; only resetting the ranking needs
// an admin token. Browser websocket clients are limited to allowed origins.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"torus-snake/game"
	"torus-snake/game/types"
	"torus-snake/scores"
)

// Controller is the part of the scheduler the API drives
type Controller interface {
	Start() error
	Snapshot() game.Frame
}

// Steering accepts remote direction input
type Steering interface {
	Set(d types.Direction)
	Key(name string) bool
	Tilt(gamma, beta float64)
}

type Options struct {
	Scores scores.Store
	Game   Controller
	Input  Steering
	Hub    *Hub

	JWTSecret         string
	AdminPasswordHash string
	TokenTTL          time.Duration
}

type Server struct {
	r    *chi.Mux
	opts Options
}

const maxScoreLimit = 100

func New(opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	s := &Server{r: chi.NewRouter(), opts: opts}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(requestLogger)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/scores", s.handleListScores)
		r.With(s.requireAdmin).Delete("/scores", s.handleResetScores)
		r.Post("/auth/token", s.handleToken)

		r.Get("/session", s.handleSession)
		r.Post("/session/start", s.handleStart)
		r.Post("/session/direction", s.handleDirection)
	})

	if opts.Hub != nil {
		s.r.Get("/ws", opts.Hub.ServeHTTP)
	}

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.r }

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type scoresRes struct {
	Scores  []scores.Entry `json:"scores"`
	Summary scores.Summary `json:"summary"`
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = min(n, maxScoreLimit)
	}

	all, err := s.opts.Scores.List(r.Context(), 0)
	if err != nil {
		log.Error().Err(err).Msg("list scores")
		writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	top := all
	if len(top) > limit {
		top = top[:limit]
	}
	writeJSON(w, http.StatusOK, scoresRes{Scores: top, Summary: scores.Summarize(all)})
}

func (s *Server) handleResetScores(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Scores.Reset(r.Context()); err != nil {
		log.Error().Err(err).Msg("reset scores")
		writeError(w, http.StatusInternalServerError, "reset_failed")
		return
	}
	log.Info().Msg("ranking reset")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Game.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Game.Start(); err != nil {
		log.Error().Err(err).Msg("start session")
		writeError(w, http.StatusInternalServerError, "start_failed")
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Game.Snapshot())
}

type directionReq struct {
	Direction string   `json:"direction"`
	Key       string   `json:"key"`
	Gamma     *float64 `json:"gamma"`
	Beta      *float64 `json:"beta"`
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	var req directionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	switch {
	case req.Direction != "":
		d, err := types.ParseDirection(req.Direction)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_direction")
			return
		}
		s.opts.Input.Set(d)
	case req.Key != "":
		if !s.opts.Input.Key(req.Key) {
			writeError(w, http.StatusBadRequest, "unknown_key")
			return
		}
	case req.Gamma != nil && req.Beta != nil:
		s.opts.Input.Tilt(*req.Gamma, *req.Beta)
	default:
		writeError(w, http.StatusBadRequest, "missing_direction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
