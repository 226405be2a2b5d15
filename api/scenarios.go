/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the database so the dashboard
	has something to show. Each scenario creates a roster and an
	entitlement rule set demonstrating specific engine behavior.

AVAILABLE SCENARIOS:

	airline-demo:     Realistic mixed roster across four eligible
	                  departments plus ineligible back-office functions
	uniform-minimal:  Tiny dataset for manual verification of the
	                  projection arithmetic

NOTE:

	Scenarios reset the database. Only use in development/demo
	environments.

SEE ALSO:
  - store/sqlite/sqlite.go: SaveEmployee / SaveRule / Reset
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/uniform-kpi/kpi"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "airline-demo",
		Name:        "Airline Demo",
		Description: "Mixed roster across AOCS, Inflight, Engineering, Cargo plus ineligible back-office departments",
	},
	{
		ID:          "uniform-minimal",
		Name:        "Minimal",
		Description: "Two employees, two rules - small enough to check demand numbers by hand",
	},
}

// ListScenarios returns the available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "airline-demo":
		err = h.loadAirlineDemo(ctx)
	case "uniform-minimal":
		err = h.loadMinimal(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func (h *Handler) loadAirlineDemo(ctx context.Context) error {
	employees := []kpi.Employee{
		// AOCS - note the roster spells the department out while the rules
		// abbreviate it; the normalizer has to bridge the two.
		{ID: "E001", Status: "Active", Department: "Airport Operations & Customer Services", Gender: "Male", Location: "DEL", JoinDate: date(2023, time.March, 10)},
		{ID: "E002", Status: "Active", Department: "Airport Operations & Customer Services", Gender: "Female", Location: "BOM", JoinDate: date(2024, time.July, 1)},
		{ID: "E003", Status: "Inactive", Department: "Airport Operations & Customer Services", Gender: "Male", Location: "DEL", JoinDate: date(2021, time.January, 5), RelievingDate: datePtr(2024, time.June, 30)},

		// Inflight
		{ID: "E010", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: date(2025, time.January, 15)},
		{ID: "E011", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "BOM", JoinDate: date(2024, time.November, 20)},
		{ID: "E012", Status: "Active", Department: "Inflight Services", Gender: "Male", Location: "HYD", JoinDate: date(2023, time.August, 2)},

		// Engineering
		{ID: "E020", Status: "Active", Department: "Engineering", Gender: "Male", Location: "DEL", JoinDate: date(2022, time.May, 9)},
		{ID: "E021", Status: "Active", Department: "ENGINEERING", Gender: "Female", Location: "BOM", JoinDate: date(2025, time.February, 28)},

		// Cargo
		{ID: "E030", Status: "Active", Department: "Cargo", Gender: "Male", Location: "DEL", JoinDate: date(2024, time.September, 12)},

		// Ineligible back office
		{ID: "E040", Status: "Active", Department: "Finance", Gender: "Female", Location: "GGN", JoinDate: date(2023, time.October, 1)},
		{ID: "E041", Status: "Active", Department: "Human Resources", Gender: "Male", Location: "GGN", JoinDate: date(2022, time.December, 15)},
		{ID: "E042", Status: "Inactive", Department: "Finance", Gender: "Male", Location: "GGN", JoinDate: date(2020, time.April, 20), RelievingDate: datePtr(2025, time.March, 31)},
	}

	rules := []kpi.EntitlementRule{
		{Department: "AOCS", ItemName: "Blazer", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 1},
		{Department: "AOCS", ItemName: "Scarf", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		{Department: "AOCS", ItemName: "Name Badge", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 0, QuantityPerIssue: 1},
		{Department: "Inflight", ItemName: "Tunic", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		{Department: "Inflights", ItemName: "Trousers", GenderScope: kpi.ScopeMale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		{Department: "Inflight", ItemName: "Wings Pin", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 0, QuantityPerIssue: 1},
		{Department: "Engineering", ItemName: "Coverall", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 2},
		{Department: "Engineering", ItemName: "Safety Shoes", GenderScope: kpi.ScopeBoth, LocationScope: "DEL", FrequencyMonths: 24, QuantityPerIssue: 1},
		{Department: "Cargo", ItemName: "High-Vis Vest", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 2},
	}

	return h.seed(ctx, employees, rules)
}

func (h *Handler) loadMinimal(ctx context.Context) error {
	employees := []kpi.Employee{
		{ID: "M001", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: date(2025, time.January, 15)},
		{ID: "M002", Status: "Active", Department: "Cargo", Gender: "Male", Location: "BOM", JoinDate: date(2024, time.June, 1)},
	}
	rules := []kpi.EntitlementRule{
		{Department: "Inflight", ItemName: "Tunic", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		{Department: "Cargo", ItemName: "High-Vis Vest", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 1},
	}
	return h.seed(ctx, employees, rules)
}

func (h *Handler) seed(ctx context.Context, employees []kpi.Employee, rules []kpi.EntitlementRule) error {
	for _, e := range employees {
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	for _, r := range rules {
		if err := h.Store.SaveRule(ctx, r); err != nil {
			return fmt.Errorf("seed rule %s/%s: %w", r.Department, r.ItemName, err)
		}
	}
	return nil
}
