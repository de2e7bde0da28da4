// Package server is an in-memory stand-in for the document-management
// service. It answers the same five endpoints with the same shapes and is
// used for local development and tests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mithrel/docman/internal/client"
	"github.com/mithrel/docman/pkg/api"
)

// DefaultOTP is accepted when Config.OTP is empty.
const DefaultOTP = "1234"

type Config struct {
	OTP      string
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Now      func() time.Time
}

// Server serves the document endpoints backed by an in-memory store.
type Server struct {
	otp     string
	log     *zap.Logger
	reg     *prometheus.Registry
	metrics *httpMetrics
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]bool   // mobile -> OTP issued
	tokens  map[string]string // token -> mobile
	docs    *docStore
}

func New(cfg Config) (*Server, error) {
	s := &Server{
		otp:     cfg.OTP,
		log:     cfg.Logger,
		reg:     cfg.Registry,
		now:     cfg.Now,
		pending: map[string]bool{},
		tokens:  map[string]string{},
		docs:    newDocStore(),
	}
	if s.otp == "" {
		s.otp = DefaultOTP
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.reg == nil {
		s.reg = prometheus.NewRegistry()
	}
	if s.now == nil {
		s.now = time.Now
	}
	m, err := newHTTPMetrics(s.reg)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	return s, nil
}

// Seed adds documents as if they had been uploaded.
func (s *Server) Seed(docs ...api.DocumentRecord) {
	for _, d := range docs {
		s.docs.add(d, nil, s.now())
	}
}

// IssueToken registers a session token without the OTP exchange.
func (s *Server) IssueToken(token, mobile string) {
	s.mu.Lock()
	s.tokens[token] = mobile
	s.mu.Unlock()
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.recoverer)
	r.Use(s.logRequests)
	r.Use(s.metrics.middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Post(client.PathGenerateOTP, s.handleGenerateOTP)
	r.Post(client.PathValidateOTP, s.handleValidateOTP)
	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post(client.PathSaveDocument, s.handleSaveDocument)
		r.Post(client.PathSearch, s.handleSearch)
		r.Post(client.PathTags, s.handleTags)
		r.Get("/files/{id}", s.handleFile)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	return r
}

// ListenAndServe runs the server on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(addr string)) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("stub server listening", zap.String("addr", addr))
		if ready != nil {
			ready(addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("shutdown", zap.Error(err))
		return err
	}
	s.log.Info("stub server stopped")
	return nil
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := r.Header.Get(client.TokenHeader)
		s.mu.Lock()
		_, ok := s.tokens[tok]
		s.mu.Unlock()
		if tok == "" || !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.log.Error("panic recovered", zap.Any("panic", rvr), zap.Stack("stacktrace"))
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http_request",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.MessageResponse{Message: msg, Status: status < 300})
}
