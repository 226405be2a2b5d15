/*
dispatch.go - Metric registry and the single fault-to-envelope point

PURPOSE:
  The dispatcher is the engine's facade. It owns the closed set of metric
  names, routes a validated request to the registered handler, applies the
  per-metric default filters, and guarantees the envelope contract: every
  evaluation yields either a uniform Result or a classified Go error -
  never a panic, never a bare fault.

DISPATCH MODEL:
  Each metric is a MetricSpec: a name, a declared default-filter set, and
  a pure handler func (request, data source already bound). Metric families
  (roster, entitlement) register their specs at wiring time. Adding a
  metric is adding one spec - there is no conditional chain to grow.

DEFAULT FILTERS:
  Several population metrics are implicitly active-only. Those defaults
  are DECLARED on the spec and injected by the dispatcher when the caller
  supplied no explicit status filter, so an explicit filter always wins
  and no handler carries hidden status literals.

ERROR CONTRACT:
  - Unknown metric, bad input  -> Result{Success: false, Message: ...}
  - Data-source failure        -> Go error (errors.Is ErrDataSource)
  - Handler panic              -> recovered, returned as Go error

SEE ALSO:
  - roster/service.go, entitlement/service.go: The registered families
  - errors.go: The error taxonomy
*/
package kpi

import (
	"context"
	"fmt"
	"sort"
)

// =============================================================================
// METRIC NAMES - The closed set
// =============================================================================

const (
	// Employee-population family (roster package)
	MetricTotal                  = "total"
	MetricActive                 = "active"
	MetricInactive               = "inactive"
	MetricStatus                 = "status"
	MetricTotalEmployees         = "total_employees"
	MetricEligibleEmployees      = "eligible_employees"
	MetricIneligibleEmployees    = "ineligible_employees"
	MetricEligibleDepartments    = "eligible_departments"
	MetricTotalDepartments       = "total_departments"
	MetricDepartmentEligibility  = "department_eligibility"
	MetricEligibilityByGender    = "eligibility_by_gender"
	MetricEligibilityTrend       = "eligibility_trend"
	MetricHeadcountVsEligibility = "headcount_vs_eligibility"

	// Entitlement family (entitlement package)
	MetricUniqueSKUs          = "unique_skus"
	MetricSKUsByDepartment    = "skus_by_department"
	MetricSKUsByGender        = "skus_by_gender"
	MetricSKUsByLocation      = "skus_by_location"
	MetricSKUsByFrequency     = "skus_by_frequency"
	MetricCoverageMatrix      = "entitlement_coverage_matrix"
	MetricAllEntitlements     = "all_uniform_entitlements"
	MetricSKUDemand           = "sku_demand"
	MetricEmployeesWithDemand = "employees_with_demand"
)

// =============================================================================
// METRIC SPEC - One registered metric variant
// =============================================================================

// MetricFunc evaluates one metric against an already-sanitized request.
// Input problems come back as unsuccessful Results; only data-source
// failures and internal faults come back as errors.
type MetricFunc func(ctx context.Context, req Request) (*Result, error)

// Defaults declares filters the dispatcher injects when the caller did not
// supply them. This replaces scattered per-metric literals: the implicit
// "active-only" population restriction lives here, visibly.
type Defaults struct {
	Status string // e.g. "Active"; injected only when Filters.Status is empty
}

// MetricSpec binds a metric name to its handler and declared defaults.
type MetricSpec struct {
	Name     string
	Defaults Defaults
	Handler  MetricFunc
}

// =============================================================================
// DISPATCHER
// =============================================================================

type Dispatcher struct {
	specs map[string]MetricSpec
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{specs: make(map[string]MetricSpec)}
}

// Register adds a metric variant. Registering the same name twice is a
// wiring bug and panics at startup rather than shadowing silently.
func (d *Dispatcher) Register(spec MetricSpec) {
	if spec.Name == "" || spec.Handler == nil {
		panic("kpi: metric spec requires a name and a handler")
	}
	if _, exists := d.specs[spec.Name]; exists {
		panic(fmt.Sprintf("kpi: metric %q registered twice", spec.Name))
	}
	d.specs[spec.Name] = spec
}

// Metrics returns the registered metric names, sorted.
func (d *Dispatcher) Metrics() []string {
	names := make([]string, 0, len(d.specs))
	for name := range d.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate answers one structured request. The returned error is non-nil
// only for data-source failures and recovered internal faults; every input
// problem is reported inside the Result.
func (d *Dispatcher) Evaluate(ctx context.Context, req Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("metric %q: internal fault: %v", req.Metric, r)
		}
	}()

	req.Filters = req.Filters.Sanitize()

	spec, ok := d.specs[req.Metric]
	if !ok {
		return Fail(req, fmt.Sprintf("%s: %q", ErrUnsupportedMetric, req.Metric)), nil
	}

	if spec.Defaults.Status != "" && req.Filters.Status == "" {
		req.Filters.Status = spec.Defaults.Status
	}

	return spec.Handler(ctx, req)
}
