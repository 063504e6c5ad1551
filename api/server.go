// Package api provides the HTTP API for the comparison core: offer cost
// comparison, switch recommendations, and spot price display. The web
// frontend and auth layer live elsewhere; this surface is JSON in, JSON out.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strompris/db/clickhouse"
	"strompris/internal/catalog"
	"strompris/internal/policy"
	"strompris/internal/recommend"
	"strompris/internal/spot"
	"strompris/pkg/market"
	"strompris/pkg/platform"
)

// Server is the HTTP API server.
type Server struct {
	httpServer   *http.Server
	catalog      catalog.Catalog
	spotSource   *spot.Source
	generator    *recommend.Generator
	policyEngine *policy.Engine
	history      *clickhouse.Store // optional; nil disables history endpoints
	config       *Config
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024, // 1MB
		CORSOrigins:    []string{"*"},
	}
}

// NewServer wires the comparison core into an HTTP server. history may be
// nil when no ClickHouse is configured.
func NewServer(
	cat catalog.Catalog,
	spotSource *spot.Source,
	generator *recommend.Generator,
	policyEngine *policy.Engine,
	history *clickhouse.Store,
	config *Config,
	logger *slog.Logger,
) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		catalog:      cat,
		spotSource:   spotSource,
		generator:    generator,
		policyEngine: policyEngine,
		history:      history,
		config:       config,
		logger:       logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/api/v1/compare", s.handleCompare)
	mux.HandleFunc("/api/v1/recommend", s.handleRecommend)
	mux.HandleFunc("/api/v1/spot", s.handleSpot)
	mux.HandleFunc("/api/v1/spot/history", s.handleSpotHistory)

	handler := s.corsMiddleware(s.loggingMiddleware(platform.APIKeyMiddleware(mux)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("API server starting", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains on SIGINT/SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method, "path", r.URL.Path,
			"remote", r.RemoteAddr, "duration", time.Since(start))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "history store not ready")
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// =============================================================================
// COMPARE ENDPOINT
// =============================================================================

// CompareRequest carries the user's consumption profile. Candidate offers
// always come from the catalog; clients cannot inject their own.
type CompareRequest struct {
	Profile market.ConsumptionProfile `json:"profile"`
}

// CompareResponse lists offers ascending by estimated monthly cost.
type CompareResponse struct {
	Zone   market.PriceZone      `json:"zone"`
	Offers []recommend.OfferCost `json:"offers"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !s.decodeProfileRequest(w, r, &req.Profile, &req) {
		return
	}

	offers, err := s.catalog.ActiveOffers(r.Context(), req.Profile.Zone)
	if err != nil {
		// Degrade to an empty comparison rather than failing the request.
		s.logger.Warn("catalog fetch failed", "zone", req.Profile.Zone, "error", err)
		offers = nil
	}

	s.jsonResponse(w, http.StatusOK, CompareResponse{
		Zone:   req.Profile.Zone,
		Offers: s.generator.CompareOffers(r.Context(), req.Profile, offers),
	})
}

// =============================================================================
// RECOMMEND ENDPOINT
// =============================================================================

// RecommendRequest carries the user's consumption profile.
type RecommendRequest struct {
	Profile market.ConsumptionProfile `json:"profile"`
}

// RecommendedSwitch pairs a recommendation with its policy decision so the
// UI can render urgency badges without a second round trip.
type RecommendedSwitch struct {
	recommend.Recommendation
	Decision *policy.Decision `json:"decision"`
}

// RecommendResponse lists recommendations descending by monthly savings.
type RecommendResponse struct {
	Zone            market.PriceZone    `json:"zone"`
	Recommendations []RecommendedSwitch `json:"recommendations"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !s.decodeProfileRequest(w, r, &req.Profile, &req) {
		return
	}

	offers, err := s.catalog.ActiveOffers(r.Context(), req.Profile.Zone)
	if err != nil {
		s.logger.Warn("catalog fetch failed", "zone", req.Profile.Zone, "error", err)
		offers = nil
	}

	recs := s.generator.Recommend(r.Context(), req.Profile, offers)
	out := make([]RecommendedSwitch, len(recs))
	for i, rec := range recs {
		out[i] = RecommendedSwitch{
			Recommendation: rec,
			Decision: s.policyEngine.Evaluate(policy.EvaluationRequest{
				Profile:        req.Profile,
				Offer:          rec.Offer,
				MonthlySavings: rec.MonthlySavings,
				YearlySavings:  rec.YearlySavings,
				SavingsPercent: rec.SavingsPercent,
			}),
		}
	}

	s.jsonResponse(w, http.StatusOK, RecommendResponse{
		Zone:            req.Profile.Zone,
		Recommendations: out,
	})
}

// =============================================================================
// SPOT ENDPOINTS
// =============================================================================

func (s *Server) handleSpot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	zone, err := market.ParseZone(r.URL.Query().Get("zone"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	day := s.spotSource.Day(r.Context(), zone)
	if day == nil {
		s.jsonError(w, http.StatusNotFound, "no spot prices available for zone")
		return
	}
	s.jsonResponse(w, http.StatusOK, day)
}

func (s *Server) handleSpotHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "spot price history not configured")
		return
	}

	zone, err := market.ParseZone(r.URL.Query().Get("zone"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		fmt.Sscanf(d, "%d", &days)
	}

	stats, err := s.history.DailyStats(r.Context(), zone, days)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query history: %v", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeProfileRequest parses a POST body into req and validates the
// embedded profile's zone. Returns false after writing an error response.
func (s *Server) decodeProfileRequest(w http.ResponseWriter, r *http.Request, profile *market.ConsumptionProfile, req any) bool {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}

	zone, err := market.ParseZone(string(profile.Zone))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return false
	}
	profile.Zone = zone
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
