// Package httpadmin exposes the administrative HTTP surface: account
// CRUD and authentication flow control. It is gated by an exact-match
// shared secret; with no secret configured the surface is open, an
// explicit insecure default for local use.
package httpadmin

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/unical-cli/internal/core/ports/driving"
	"github.com/custodia-labs/unical-cli/internal/logger"
)

// Per-client request budget for the admin surface. Configuration
// changes are operator-driven and rare; anything faster is a bug or
// abuse.
const (
	clientRate  = rate.Limit(10)
	clientBurst = 20
)

// Server is the admin HTTP server.
type Server struct {
	accounts driving.AccountService
	flows    driving.AuthFlowService
	secret   string

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// NewServer creates the admin server. secret is the shared admin
// secret; empty means unauthenticated access.
func NewServer(accounts driving.AccountService, flows driving.AuthFlowService, secret string) *Server {
	return &Server{
		accounts: accounts,
		flows:    flows,
		secret:   secret,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Router builds the chi router with all admin routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.requireSecret)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Put("/accounts/{id}", s.handleUpdateAccount)
		r.Delete("/accounts/{id}", s.handleRemoveAccount)
		r.Post("/accounts/{id}/logout", s.handleLogout)

		r.Post("/auth/{id}/start", s.handleStartFlow)
		r.Get("/auth/{id}/status", s.handleFlowStatus)
		r.Post("/auth/{id}/cancel", s.handleCancelFlow)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requireSecret enforces the exact-match shared secret, accepted as a
// Bearer token or the X-Admin-Token header. No configured secret means
// the surface is open.
func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if strings.TrimPrefix(auth, "Bearer ") == s.secret {
				next.ServeHTTP(w, r)
				return
			}
		}
		if r.Header.Get("X-Admin-Token") == s.secret {
			next.ServeHTTP(w, r)
			return
		}

		writeError(w, http.StatusUnauthorized, "invalid admin token")
	})
}

// rateLimit throttles per client IP.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiterFor(host).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(host string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(clientRate, clientBurst)
		s.limiters[host] = limiter
	}
	return limiter
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
