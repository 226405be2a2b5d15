/*
Package roster implements the employee-population metric family.

PURPOSE:
  Answers headcount and eligibility questions over the workforce roster:
  total/active/inactive counts with grouping, status breakdowns, and the
  eligibility family driven by the entitlement rule set (see
  eligibility.go).

ARCHITECTURE:
  Service binds the shared data source and department normalizer, and
  registers one kpi.MetricSpec per metric with the dispatcher. Handlers are
  pure functions over the loaded row sets - no state survives a request.

FILTERS:
  All metrics honor department/gender/location/status filters. Population
  counts additionally honor a lifecycle time range: an employee counts in
  [from, to] iff they joined by the window end and were not relieved before
  the window start.

SEE ALSO:
  - eligibility.go: Eligibility resolver and its metrics
  - kpi/dispatch.go: Registry and default-filter injection
*/
package roster

import (
	"context"
	"sort"
	"strings"

	"github.com/warp/uniform-kpi/kpi"
)

// Service evaluates employee-population metrics.
type Service struct {
	source kpi.DataSource
	norm   *kpi.Normalizer
}

func NewService(source kpi.DataSource, norm *kpi.Normalizer) *Service {
	return &Service{source: source, norm: norm}
}

// Register wires every roster metric into the dispatcher. Implicitly
// active-only metrics declare that default here rather than hiding it in
// their handlers.
func (s *Service) Register(d *kpi.Dispatcher) {
	active := kpi.Defaults{Status: "Active"}

	d.Register(kpi.MetricSpec{Name: kpi.MetricTotal, Handler: s.countMetric("")})
	d.Register(kpi.MetricSpec{Name: kpi.MetricActive, Handler: s.countMetric("Active")})
	d.Register(kpi.MetricSpec{Name: kpi.MetricInactive, Handler: s.countMetric("Inactive")})
	d.Register(kpi.MetricSpec{Name: kpi.MetricStatus, Handler: s.statusBreakdown})
	d.Register(kpi.MetricSpec{Name: kpi.MetricTotalEmployees, Defaults: active, Handler: s.totalByGender})

	d.Register(kpi.MetricSpec{Name: kpi.MetricEligibleEmployees, Defaults: active, Handler: s.eligibleEmployees})
	d.Register(kpi.MetricSpec{Name: kpi.MetricIneligibleEmployees, Defaults: active, Handler: s.ineligibleEmployees})
	d.Register(kpi.MetricSpec{Name: kpi.MetricEligibleDepartments, Handler: s.eligibleDepartments})
	d.Register(kpi.MetricSpec{Name: kpi.MetricTotalDepartments, Handler: s.totalDepartments})
	d.Register(kpi.MetricSpec{Name: kpi.MetricDepartmentEligibility, Handler: s.departmentEligibility})
	d.Register(kpi.MetricSpec{Name: kpi.MetricEligibilityByGender, Defaults: active, Handler: s.eligibilityByGender})
	d.Register(kpi.MetricSpec{Name: kpi.MetricEligibilityTrend, Defaults: active, Handler: s.eligibilityTrend})
	d.Register(kpi.MetricSpec{Name: kpi.MetricHeadcountVsEligibility, Defaults: active, Handler: s.headcountVsEligibility})
}

// =============================================================================
// ROW SHAPES
// =============================================================================

// DepartmentBreakdownRow is the full per-department population breakdown.
type DepartmentBreakdownRow struct {
	Department        string `json:"department"`
	TotalEmployees    int    `json:"total_employees"`
	ActiveEmployees   int    `json:"active_employees"`
	InactiveEmployees int    `json:"inactive_employees"`
	Locations         int    `json:"number_of_locations_present"`
}

// GenderTotalRow is one row of the per-gender headcount card, including
// the explicit TOTAL row.
type GenderTotalRow struct {
	Gender string `json:"gender"`
	Value  int    `json:"total_active"`
}

// =============================================================================
// LOADING
// =============================================================================

func (s *Service) loadEmployees(ctx context.Context) ([]kpi.Employee, error) {
	employees, err := s.source.Employees(ctx)
	return employees, kpi.NewSourceError("employees", err)
}

func (s *Service) loadRules(ctx context.Context) ([]kpi.EntitlementRule, error) {
	rules, err := s.source.EntitlementRules(ctx)
	return rules, kpi.NewSourceError("entitlement_rules", err)
}

// selectEmployees loads the roster and applies the request's filters plus
// the lifecycle window, if any. A malformed window yields a Fail result.
func (s *Service) selectEmployees(ctx context.Context, req kpi.Request) ([]kpi.Employee, *kpi.Result, error) {
	employees, err := s.loadEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}

	match := kpi.EmployeeFilter(req.Filters, s.norm)
	var out []kpi.Employee
	for _, e := range employees {
		if match(e) {
			out = append(out, e)
		}
	}

	if req.TimeRange != nil {
		w, err := kpi.ParseWindow(*req.TimeRange)
		if err != nil {
			return nil, kpi.Fail(req, "Invalid date format. Use YYYY-MM"), nil
		}
		var windowed []kpi.Employee
		for _, e := range out {
			if e.ActiveIn(w.Start(), w.End()) {
				windowed = append(windowed, e)
			}
		}
		out = windowed
	}
	return out, nil, nil
}

// =============================================================================
// SIMPLE COUNTS - total / active / inactive with grouping
// =============================================================================

// countMetric builds the handler for the flat population counts. The
// status constraint is the metric's own restriction ("active" counts
// active employees no matter what), distinct from a status filter.
func (s *Service) countMetric(statusConstraint string) kpi.MetricFunc {
	return func(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
		employees, failed, err := s.selectEmployees(ctx, req)
		if err != nil || failed != nil {
			return failed, err
		}
		if statusConstraint != "" {
			employees = filterByStatus(employees, statusConstraint)
		}

		switch req.GroupBy {
		case "department":
			if statusConstraint == "" {
				return kpi.OK(req, "Employee breakdown by department", s.departmentBreakdown(employees)), nil
			}
			return kpi.OK(req, "Employee count by department", groupCount(employees, func(e kpi.Employee) string {
				return s.norm.Normalize(e.Department)
			})), nil
		case "gender":
			return kpi.OK(req, "Employee count by gender", groupCount(employees, func(e kpi.Employee) string {
				return strings.TrimSpace(e.Gender)
			})), nil
		case "location":
			return kpi.OK(req, "Employee count by location", groupCount(employees, func(e kpi.Employee) string {
				return strings.TrimSpace(e.Location)
			})), nil
		default:
			// Unrecognized group_by values fall back to the flat count.
			return kpi.OK(req, "Employee count", kpi.CountRow{Value: distinct(employees)}), nil
		}
	}
}

// statusBreakdown counts distinct employees per status bucket.
func (s *Service) statusBreakdown(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	employees, failed, err := s.selectEmployees(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}
	rows := groupCount(employees, kpi.Employee.StatusLabel)
	return kpi.OK(req, "Employee count by status", rows), nil
}

// totalByGender is the headcount card: distinct employees per gender plus
// an explicit TOTAL row.
func (s *Service) totalByGender(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	employees, failed, err := s.selectEmployees(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}

	rows := []GenderTotalRow{{Gender: "TOTAL", Value: distinct(employees)}}
	for _, g := range groupCount(employees, func(e kpi.Employee) string { return strings.TrimSpace(e.Gender) }) {
		rows = append(rows, GenderTotalRow{Gender: g.Label, Value: g.Value})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Gender < rows[j].Gender })
	return kpi.OK(req, "Total active employees", rows), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func filterByStatus(employees []kpi.Employee, status string) []kpi.Employee {
	var out []kpi.Employee
	for _, e := range employees {
		if strings.EqualFold(strings.TrimSpace(e.Status), status) {
			out = append(out, e)
		}
	}
	return out
}

// distinct counts unique employee IDs.
func distinct(employees []kpi.Employee) int {
	seen := make(map[kpi.EmployeeID]struct{}, len(employees))
	for _, e := range employees {
		seen[e.ID] = struct{}{}
	}
	return len(seen)
}

// groupCount buckets distinct employees by a label function, sorted by
// label for stable output.
func groupCount(employees []kpi.Employee, label func(kpi.Employee) string) []kpi.GroupRow {
	buckets := make(map[string]map[kpi.EmployeeID]struct{})
	for _, e := range employees {
		l := label(e)
		if buckets[l] == nil {
			buckets[l] = make(map[kpi.EmployeeID]struct{})
		}
		buckets[l][e.ID] = struct{}{}
	}

	rows := make([]kpi.GroupRow, 0, len(buckets))
	for l, ids := range buckets {
		rows = append(rows, kpi.GroupRow{Label: l, Value: len(ids)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows
}

// departmentBreakdown builds the full per-department rows, departments
// reported under their canonical names.
func (s *Service) departmentBreakdown(employees []kpi.Employee) []DepartmentBreakdownRow {
	type bucket struct {
		total, active, inactive map[kpi.EmployeeID]struct{}
		locations               map[string]struct{}
	}

	buckets := make(map[string]*bucket)
	for _, e := range employees {
		dept := s.norm.Normalize(e.Department)
		b := buckets[dept]
		if b == nil {
			b = &bucket{
				total:     make(map[kpi.EmployeeID]struct{}),
				active:    make(map[kpi.EmployeeID]struct{}),
				inactive:  make(map[kpi.EmployeeID]struct{}),
				locations: make(map[string]struct{}),
			}
			buckets[dept] = b
		}
		b.total[e.ID] = struct{}{}
		if e.IsActive() {
			b.active[e.ID] = struct{}{}
		} else {
			b.inactive[e.ID] = struct{}{}
		}
		b.locations[strings.ToLower(strings.TrimSpace(e.Location))] = struct{}{}
	}

	rows := make([]DepartmentBreakdownRow, 0, len(buckets))
	for dept, b := range buckets {
		rows = append(rows, DepartmentBreakdownRow{
			Department:        dept,
			TotalEmployees:    len(b.total),
			ActiveEmployees:   len(b.active),
			InactiveEmployees: len(b.inactive),
			Locations:         len(b.locations),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Department < rows[j].Department })
	return rows
}
