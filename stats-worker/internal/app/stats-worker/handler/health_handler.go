package handler

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"opaque/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const checkTimeout = 5 * time.Second

// Checker проверяет одну зависимость worker'а (БД, Redis)
type Checker func(ctx context.Context) error

type HealthCheckHandler struct {
	checks map[string]Checker
}

func NewHealthCheckHandler(checks map[string]Checker) *HealthCheckHandler {
	return &HealthCheckHandler{checks: checks}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// runChecks опрашивает все зависимости параллельно; nil в ответе - зависимость жива
func (h *HealthCheckHandler) runChecks(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(h.checks))
	)
	for name, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := check(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Checks:    make(map[string]string, len(h.checks)),
		Timestamp: time.Now().UTC(),
	}
	for name, err := range h.runChecks(r.Context()) {
		if err != nil {
			resp.Checks[name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "healthy"
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("Failed to write health response")
	}
}

// Readiness перечисляет недоступные зависимости в теле 503
func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results := h.runChecks(r.Context())

	var down []string
	for _, name := range slices.Sorted(maps.Keys(results)) {
		if results[name] != nil {
			down = append(down, name+" not ready")
		}
	}
	if len(down) > 0 {
		http.Error(w, strings.Join(down, "; "), http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("alive"))
}

// RegisterRoutes вешает health эндпоинты и /metrics
func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/readiness", h.Readiness)
	mux.HandleFunc("GET /health/liveness", h.Liveness)
	mux.Handle("GET /metrics", promhttp.Handler())
}
