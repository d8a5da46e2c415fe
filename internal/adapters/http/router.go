package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/core/ports"
	"github.com/calyptra/regqa/internal/observability/metrics"
)

const serviceName = "regqa-api"

type Router struct {
	search   ports.QueryService
	metrics  *metrics.HTTPServerMetrics
	defaultK int
}

func NewRouter(search ports.QueryService, m *metrics.HTTPServerMetrics, defaultK int) *Router {
	if defaultK < 1 {
		defaultK = 3
	}
	return &Router{
		search:   search,
		metrics:  m,
		defaultK: defaultK,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/ask", rt.ask)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// unsetAlpha is passed downstream when the request body carries no alpha;
// the service substitutes its configured default. An explicit 0 is a valid
// weight (pure lexical fusion) and must survive the trip.
const unsetAlpha = -1

type askRequest struct {
	Q     string   `json:"q"`
	K     int      `json:"k"`
	Mode  string   `json:"mode"`
	Alpha *float64 `json:"alpha"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Q) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'q' (query) in request body"})
		return
	}
	if req.K == 0 {
		req.K = rt.defaultK
	}
	if req.Mode == "" {
		req.Mode = string(domain.ModeHybrid)
	}
	alpha := float64(unsetAlpha)
	if req.Alpha != nil {
		if *req.Alpha < 0 || *req.Alpha > 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "alpha must be in [0,1]"})
			return
		}
		alpha = *req.Alpha
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result, err := rt.search.Query(r.Context(), req.Q, req.K, mode, alpha)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordSearch(serviceName, string(mode), len(result.Contexts), result.Answer == nil, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
