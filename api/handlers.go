/*
handlers.go - HTTP API handlers for the uniform KPI engine

PURPOSE:
  Exposes the KPI engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates everything else to the dispatcher.

ENDPOINTS:
  Queries:
    POST   /api/kpi/query                        Evaluate a structured request
    GET    /api/kpi/metrics                      List supported metric names

  Dashboard (fixed questions the frontend tabs ask):
    GET    /api/dashboard/summary                Card values
    GET    /api/dashboard/coverage-matrix        Department x SKU pivot
    GET    /api/dashboard/demand                 Demand forecast (default window)
    GET    /api/dashboard/department-eligibility Per-department breakdown

  Scenarios:
    GET    /api/scenarios                        List demo scenarios
    GET    /api/scenarios/current                Currently loaded scenario
    POST   /api/scenarios/load                   Load a demo scenario
    POST   /api/scenarios/reset                  Clear all data

REQUEST FLOW:
  1. Parse HTTP request (factory handles untrusted payload shapes)
  2. Assign a query id (uuid) for tracing
  3. Dispatcher evaluates
  4. Serialize the uniform envelope

ERROR HANDLING:
  Input problems never surface as HTTP errors: they come back inside the
  envelope with success=false, so the chat frontend can show the message.
  Only transport problems map to HTTP status codes:
  - 400: Unparseable payload (broken JSON, no metric)
  - 500: Data-source failure or internal fault

SEE ALSO:
  - dto.go: Response wrappers
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/warp/uniform-kpi/entitlement"
	"github.com/warp/uniform-kpi/factory"
	"github.com/warp/uniform-kpi/kpi"
	"github.com/warp/uniform-kpi/roster"
	"github.com/warp/uniform-kpi/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options carries the deployment knobs the handler needs.
type Options struct {
	Cutoff        time.Time
	HorizonMonths int
	Aliases       map[string]string
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Dispatcher   *kpi.Dispatcher
	Factory      *factory.RequestFactory
	Entitlements *entitlement.Service

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler wires the metric families onto one dispatcher over the store.
func NewHandler(store *sqlite.Store, opts Options) *Handler {
	norm := kpi.NewNormalizerWithAliases(opts.Aliases)

	entitlements := entitlement.NewService(store, norm, opts.Cutoff, opts.HorizonMonths)
	d := kpi.NewDispatcher()
	roster.NewService(store, norm).Register(d)
	entitlements.Register(d)

	return &Handler{
		Store:        store,
		Dispatcher:   d,
		Factory:      factory.NewRequestFactory(),
		Entitlements: entitlements,
	}
}

// =============================================================================
// QUERY ENDPOINTS
// =============================================================================

// Query evaluates one structured KPI request.
// POST /api/kpi/query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	req, err := h.Factory.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid KPI request", err)
		return
	}

	h.respond(w, r, req)
}

// ListMetrics returns the supported metric names.
// GET /api/kpi/metrics
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"metrics": h.Dispatcher.Metrics()})
}

// respond evaluates req and writes the wrapped envelope.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, req kpi.Request) {
	queryID := uuid.NewString()

	res, err := h.Dispatcher.Evaluate(r.Context(), req)
	if err != nil {
		log.Printf("query %s metric=%q failed: %v", queryID, req.Metric, err)
		writeError(w, http.StatusInternalServerError, "Metric evaluation failed", err)
		return
	}

	if !res.Success {
		log.Printf("query %s metric=%q rejected: %s", queryID, req.Metric, res.Message)
	}
	w.Header().Set("X-Query-ID", queryID)
	writeJSON(w, http.StatusOK, QueryResponse{QueryID: queryID, Result: res})
}

// =============================================================================
// DASHBOARD ENDPOINTS
// =============================================================================

// summaryCards are the flat-count metrics shown as dashboard cards.
var summaryCards = []string{
	kpi.MetricTotal,
	kpi.MetricActive,
	kpi.MetricInactive,
	kpi.MetricEligibleEmployees,
	kpi.MetricIneligibleEmployees,
	kpi.MetricEligibleDepartments,
	kpi.MetricTotalDepartments,
	kpi.MetricUniqueSKUs,
}

// Summary returns the card values in one round trip.
// GET /api/dashboard/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	cards := make(map[string]int, len(summaryCards))
	for _, metric := range summaryCards {
		res, err := h.Dispatcher.Evaluate(r.Context(), kpi.Request{Metric: metric})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Metric evaluation failed", err)
			return
		}
		if row, ok := res.Data.(kpi.CountRow); ok {
			cards[metric] = row.Value
		}
	}
	writeJSON(w, http.StatusOK, SummaryDTO{Cards: cards})
}

// CoverageMatrix returns the department x SKU pivot.
// GET /api/dashboard/coverage-matrix
func (h *Handler) CoverageMatrix(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, kpi.Request{Metric: kpi.MetricCoverageMatrix})
}

// Demand returns the demand forecast. Without from/to parameters it uses
// the default window (the twelve months after the cutoff date).
// GET /api/dashboard/demand?from=YYYY-MM&to=YYYY-MM&department=&gender=&sku=
func (h *Handler) Demand(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tr := kpi.TimeRange{From: q.Get("from"), To: q.Get("to")}
	if tr.From == "" || tr.To == "" {
		def := h.Entitlements.DefaultWindow()
		tr = kpi.TimeRange{From: def.From.String(), To: def.To.String()}
	}

	h.respond(w, r, kpi.Request{
		Metric: kpi.MetricSKUDemand,
		Filters: kpi.Filters{
			Department: q.Get("department"),
			Gender:     q.Get("gender"),
			SKU:        q.Get("sku"),
		},
		TimeRange: &tr,
	})
}

// DepartmentEligibility returns the per-department breakdown.
// GET /api/dashboard/department-eligibility
func (h *Handler) DepartmentEligibility(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, kpi.Request{Metric: kpi.MetricDepartmentEligibility})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
