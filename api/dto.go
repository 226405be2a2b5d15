/*
dto.go - Response wrappers for the HTTP API

The engine's uniform Result envelope already is the API contract; the
types here only add the transport-level extras (query ids, error shape,
scenario metadata).
*/
package api

import "github.com/warp/uniform-kpi/kpi"

// QueryResponse wraps an evaluated envelope with its trace id.
type QueryResponse struct {
	QueryID string      `json:"query_id"`
	Result  *kpi.Result `json:"result"`
}

// SummaryDTO carries the dashboard card values keyed by metric name.
type SummaryDTO struct {
	Cards map[string]int `json:"cards"`
}

// ErrorResponse is the transport-level error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
