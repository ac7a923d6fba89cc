package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crossbridge/internal/agent"
	"crossbridge/internal/bridge"
	"crossbridge/internal/chainhealth"
	"crossbridge/internal/config"
	"crossbridge/internal/hmacauth"
	"crossbridge/internal/ratelimit"
	"crossbridge/internal/registry"
)

const maxRequestBytes = 1 << 20

// Transferer runs one cross-chain transfer.
type Transferer interface {
	Transfer(ctx context.Context, req bridge.TransferRequest) (bridge.Outcome, error)
}

// Deps are the collaborators built in main. Registry, Bridge and Metrics
// are required.
type Deps struct {
	Registry   *registry.Registry
	Bridge     Transferer
	Metrics    *Metrics
	DeadLetter *bridge.DeadLetter
	// Checkers probes chain RPC nodes by chain name for /health.
	Checkers map[string]chainhealth.Checker
}

type Server struct {
	cfg        *config.AppConfig
	registry   *registry.Registry
	bridge     Transferer
	metrics    *Metrics
	deadLetter *bridge.DeadLetter
	checkers   map[string]chainhealth.Checker
	hmac       *hmacauth.Verifier
	limiter    *ratelimit.KeyLimiter
	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, deps Deps) *Server {
	s := &Server{
		cfg:        cfg,
		registry:   deps.Registry,
		bridge:     deps.Bridge,
		metrics:    deps.Metrics,
		deadLetter: deps.DeadLetter,
		checkers:   deps.Checkers,
		hmac: &hmacauth.Verifier{
			Secret:  cfg.Auth.HMACSecret,
			MaxSkew: cfg.Auth.ClockSkew,
		},
		limiter: ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute),
	}

	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Service.HTTPPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.Service.ReadHeaderTimeout,
	}
	return s
}

// Handler returns the full middleware chain. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/bridge", s.limiter.Middleware(s.hmac.Middleware(http.HandlerFunc(s.handleBridge))))
	mux.Handle("/metrics", s.metrics.handler())
	mux.HandleFunc("/health", s.handleHealth)

	return requestIDMiddleware(accessLogMiddleware(cors.AllowAll().Handler(mux)))
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).
		Strs("chains", s.registry.Chains()).
		Bool("hmac", s.hmac.Enabled()).
		Msg("bridge API listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeBridge(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var payload bridge.TransferRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&payload); err != nil {
		s.writeBridge(w, http.StatusBadRequest, errorResponse{Error: "invalid json payload"})
		return
	}

	// A caller disconnect must not abandon a started burn. agent.timeout
	// still bounds each phase.
	ctx := context.WithoutCancel(r.Context())
	outcome, err := s.bridge.Transfer(ctx, payload)
	if err != nil {
		status := http.StatusInternalServerError
		var terr *bridge.TransferError
		if errors.As(err, &terr) && terr.ClientError() {
			status = http.StatusBadRequest
		}
		s.writeBridge(w, status, errorResponse{Error: err.Error()})
		if errors.Is(err, bridge.ErrMintFailed) {
			s.updateDeadLetterDepth(ctx)
		}
		return
	}

	s.writeBridge(w, http.StatusOK, outcome)
}

func (s *Server) writeBridge(w http.ResponseWriter, status int, body any) {
	s.metrics.incRequest(status)
	writeJSON(w, status, body)
}

type chainHealth struct {
	Name          string              `json:"name"`
	AgentEndpoint string              `json:"agentEndpoint"`
	RPC           *chainhealth.Status `json:"rpc,omitempty"`
}

type healthResponse struct {
	Status          string        `json:"status"`
	Chains          []chainHealth `json:"chains"`
	DeadLetterDepth int           `json:"dead_letter_depth"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	ctx := r.Context()
	healthy := true

	entries := s.registry.Entries()
	chains := make([]chainHealth, 0, len(entries))
	for _, e := range entries {
		ch := chainHealth{Name: e.Name, AgentEndpoint: e.AgentEndpoint}
		if checker, ok := s.checkers[e.Name]; ok {
			st := chainhealth.Probe(ctx, checker, s.cfg.Service.HealthTimeout)
			if !st.Connected {
				healthy = false
			}
			ch.RPC = &st
		}
		chains = append(chains, ch)
	}

	resp := healthResponse{
		Status:          "healthy",
		Chains:          chains,
		DeadLetterDepth: s.updateDeadLetterDepth(ctx),
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) updateDeadLetterDepth(ctx context.Context) int {
	depth, err := s.deadLetter.Depth()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("dead letter read failed")
		return 0
	}
	s.metrics.setDeadLetterDepth(depth)
	return depth
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestIDMiddleware assigns an X-Request-Id, echoes it back and puts a
// request-scoped logger and the ID into the context.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-Id", id)
		}
		w.Header().Set("X-Request-Id", id)

		logger := log.Logger.With().Str("request_id", id).Logger()
		ctx := logger.WithContext(r.Context())
		ctx = agent.WithRequestID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
