package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chainexplorer/internal/config"
	"chainexplorer/internal/domain"
	"chainexplorer/internal/infrastructure/telemetry"
	"chainexplorer/internal/serialize"

	"go.opentelemetry.io/otel/trace"
)

// Explorer is the read API the routes are served from.
type Explorer interface {
	LatestBlocks(ctx context.Context, count int) ([]domain.Block, error)
	BlockByHash(ctx context.Context, hash string) (*domain.Block, error)
	BlockWithTransactions(ctx context.Context, hash string) (*domain.Block, error)
	Transaction(ctx context.Context, hash string) (*domain.Transaction, error)
	RecentTransactions(ctx context.Context, address string, count int) ([]domain.Transaction, error)
}

type RPCStatus interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

type Option func(*Server)

// WithPages serves h for every path not claimed by an API route.
func WithPages(h http.Handler) Option {
	return func(s *Server) { s.pages = h }
}

// WithCache adds the cache store to the readiness probe.
func WithCache(p Pinger) Option {
	return func(s *Server) { s.cache = p }
}

// WithTracerProvider traces requests through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracerProvider = tp }
}

type Server struct {
	cfg            config.Config
	explorer       Explorer
	rpc            RPCStatus
	cache          Pinger
	pages          http.Handler
	metrics        *telemetry.Metrics
	tracerProvider trace.TracerProvider
	buildInfo      BuildInfo
}

func NewServer(cfg config.Config, explorer Explorer, rpc RPCStatus, metrics *telemetry.Metrics, buildInfo BuildInfo, opts ...Option) (*Server, error) {
	if explorer == nil || rpc == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	s := &Server{cfg: cfg, explorer: explorer, rpc: rpc, metrics: metrics, buildInfo: buildInfo}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /healthz", s.handleHealth)
	s.route(mux, "GET /readyz", s.handleReady)
	s.route(mux, "GET /version", s.handleVersion)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.route(mux, "GET /api/blocks", s.handleLatestBlocks)
	s.route(mux, "GET /api/blocks/{hash}", s.handleBlock)
	s.route(mux, "GET /api/transactions/{hash}", s.handleTransaction)
	s.route(mux, "GET /api/accounts/{address}/transactions", s.handleAccountTransactions)

	if s.pages != nil {
		mux.Handle("/", s.instrument("pages", s.pages))
	}
	return s.middleware(mux)
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("http server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "cache not ready", "err", err)
			respondError(w, http.StatusServiceUnavailable, "cache not ready")
			return
		}
	}
	head, err := s.rpc.LatestBlockNumber(ctx)
	if err != nil {
		slog.WarnContext(ctx, "rpc not ready", "err", err)
		respondError(w, http.StatusServiceUnavailable, "rpc not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready", "latestBlock": head})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func (s *Server) handleLatestBlocks(w http.ResponseWriter, r *http.Request) {
	count, err := parseCount(r, s.cfg.LatestBlocksCount, s.cfg.MaxBlocksCount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	blocks, err := s.explorer.LatestBlocks(r.Context(), count)
	if err != nil {
		slog.ErrorContext(r.Context(), "latest blocks failed", "count", count, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch blocks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	fetch := s.explorer.BlockByHash
	if r.URL.Query().Get("transactions") == "full" {
		fetch = s.explorer.BlockWithTransactions
	}
	block, err := fetch(r.Context(), hash)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"block": block})
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Invalid block hash")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "Block not found")
	default:
		slog.ErrorContext(r.Context(), "block lookup failed", "hash", hash, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch block")
	}
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	tx, err := s.explorer.Transaction(r.Context(), hash)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"transaction": tx})
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Invalid transaction hash")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "Transaction not found")
	default:
		slog.ErrorContext(r.Context(), "transaction lookup failed", "hash", hash, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch transaction")
	}
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	count, err := parseCount(r, s.cfg.AccountTxCount, s.cfg.MaxAccountTxCount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := s.explorer.RecentTransactions(r.Context(), address, count)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"transactions": txs})
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Invalid address")
	default:
		slog.ErrorContext(r.Context(), "account scan failed", "address", address, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch transactions")
	}
}

// parseCount reads ?count, falling back to fallback. Values above limit are
// rejected rather than clamped.
func parseCount(r *http.Request, fallback, limit int) (int, error) {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid count")
	}
	if limit > 0 && value > limit {
		return 0, fmt.Errorf("count must not exceed %d", limit)
	}
	return value, nil
}

// respondJSON encodes payload after big integers have been turned into
// decimal strings.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	normalized, err := serialize.Normalize(payload)
	if err != nil {
		slog.Error("response normalization failed", "err", err)
		status = http.StatusInternalServerError
		normalized = map[string]string{"error": "Failed to encode response"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(normalized)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
