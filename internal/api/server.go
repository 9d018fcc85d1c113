package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/external"
	"github.com/kjannette/trahn-ladder/internal/metrics"
	"github.com/kjannette/trahn-ladder/internal/repository"
	"github.com/kjannette/trahn-ladder/internal/risk"
	"github.com/kjannette/trahn-ladder/internal/strategy"
)

const (
	maxQueryLimit = 1000
	maxBodyBytes  = 1 << 20
)

type Options struct {
	Port       int
	APIKey     string
	CORSOrigin string

	Store       repository.Store
	Prices      external.PriceSource
	PriceSource string // name used in metrics and responses
	Defaults    strategy.LadderParams
	Guardian    *risk.Guardian
	Metrics     *metrics.Metrics
	Log         logrus.FieldLogger
}

type Server struct {
	store       repository.Store
	prices      external.PriceSource
	priceSource string
	defaults    strategy.LadderParams
	guardian    *risk.Guardian
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	httpServer  *http.Server
	apiKey      string
}

func NewServer(opts Options) *Server {
	guardian := opts.Guardian
	if guardian == nil {
		guardian = risk.NewGuardian(risk.Limits{})
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		store:       opts.Store,
		prices:      opts.Prices,
		priceSource: opts.PriceSource,
		defaults:    opts.Defaults,
		guardian:    guardian,
		metrics:     opts.Metrics,
		log:         log,
		apiKey:      opts.APIKey,
	}

	mux := http.NewServeMux()

	// Ladder routes
	mux.HandleFunc("POST /v1/ladder", s.handleBuildLadder)
	mux.HandleFunc("GET /v1/ladder/default", s.handleDefaultLadder)

	// Preset routes
	mux.HandleFunc("GET /v1/presets", s.handleListPresets)
	mux.HandleFunc("GET /v1/presets/{name}", s.handleGetPreset)
	mux.HandleFunc("PUT /v1/presets/{name}", s.handlePutPreset)
	mux.HandleFunc("DELETE /v1/presets/{name}", s.handleDeletePreset)
	mux.HandleFunc("GET /v1/presets/{name}/ladder", s.handlePresetLadder)

	// Snapshot routes
	mux.HandleFunc("GET /v1/snapshots", s.handleSnapshotHistory)
	mux.HandleFunc("GET /v1/snapshots/latest", s.handleLatestSnapshot)

	// Price routes
	mux.HandleFunc("GET /v1/price/latest", s.handleLatestPrice)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	handler := s.requestLogger(s.authMiddleware(corsMiddleware(mux, opts.CORSOrigin)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	s.log.WithFields(logrus.Fields{
		"addr":   "http://localhost" + s.httpServer.Addr,
		"health": "http://localhost" + s.httpServer.Addr + "/health",
		"auth":   s.apiKey != "",
	}).Info("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

type ctxKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger assigns a request ID (honouring an incoming X-Request-ID) and
// logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		log := s.log.WithField("requestId", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, log)))

		entry := log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		if rec.status >= 500 {
			entry.Warn("request failed")
		} else {
			entry.Debug("request")
		}
	})
}

// logFor returns the request-scoped logger.
func (s *Server) logFor(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(ctxKey{}).(logrus.FieldLogger); ok {
		return l
	}
	return s.log
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- request helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// parsePriceOverride reads ?price=. ok is false when absent.
func parsePriceOverride(r *http.Request) (price float64, ok bool, err error) {
	v := r.URL.Query().Get("price")
	if v == "" {
		return 0, false, nil
	}
	price, err = strconv.ParseFloat(v, 64)
	if err != nil || !(price > 0) {
		return 0, false, fmt.Errorf("price must be a positive number, got %q", v)
	}
	return price, true, nil
}

// decodeParams decodes a LadderParams body over base, so omitted fields keep
// their base values.
func decodeParams(w http.ResponseWriter, r *http.Request, base strategy.LadderParams) (strategy.LadderParams, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	p := base
	if err := dec.Decode(&p); err != nil {
		return base, fmt.Errorf("invalid JSON body: %w", err)
	}
	return p, nil
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
