// Package api serves the dispatcher over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/logging"
)

var httpLog = logging.ForComponent(logging.CompHTTP)

const maxBodyBytes = 1 << 20

type Config struct {
	Addr string

	// Token, when set, is required as a bearer token or ?token= query value.
	Token string

	// RatePerSecond limits dispatched requests across all clients; zero
	// disables the limit.
	RatePerSecond float64
	Burst         int
}

type Server struct {
	cfg     Config
	router  *chi.Mux
	d       *dispatch.Dispatcher
	limiter *rate.Limiter
}

func NewServer(cfg Config, d *dispatch.Dispatcher) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		d:      d,
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/health", s.health)
	s.router.Group(func(r chi.Router) {
		r.Use(s.authorize)
		r.Use(guardBrowser)
		r.Use(s.rateLimit)
		r.Post("/api/v1/dispatch", s.dispatch)
		r.Post("/api/v1/actions/{action}", s.action)
		r.Get("/ws", s.websocket)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		httpLog.Info("api_listening", slog.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": dispatch.Version})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.Response{"success": false, "error": "invalid json payload"})
		return
	}
	writeJSON(w, http.StatusOK, s.d.Handle(r.Context(), req))
}

// action takes the action from the path; the body, which may be empty,
// carries the other parameters.
func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.Response{"success": false, "error": "unreadable body"})
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, dispatch.Response{"success": false, "error": "invalid json payload"})
			return
		}
	}
	req.Action = chi.URLParam(r, "action")
	writeJSON(w, http.StatusOK, s.d.Handle(r.Context(), req))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		httpLog.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("took", time.Since(start)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, dispatch.Response{"success": false, "error": "rate limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
