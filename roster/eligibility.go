/*
eligibility.go - Eligibility resolver and its metric handlers

DEFINITIONS:
  A canonical department is ELIGIBLE iff at least one entitlement rule's
  normalized department equals it. An employee is ELIGIBLE iff their
  normalized department is eligible (plus whatever status restriction the
  metric declares - most are active-only by default).

OUTPUT CONTRACTS:
  - eligible_employees grouped by status always returns exactly two rows,
    "Active" and "Inactive", zero-filled when a bucket is empty. Chart
    renderers depend on the fixed shape.
  - department_eligibility labels a department "Eligible" only when at
    least one ACTIVE eligible employee exists under it.
  - headcount_vs_eligibility keeps left-join semantics: ineligible
    employees still count toward total headcount.
*/
package roster

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/uniform-kpi/kpi"
)

// =============================================================================
// ROW SHAPES
// =============================================================================

// DepartmentEligibilityRow is one row of the per-department eligibility
// breakdown.
type DepartmentEligibilityRow struct {
	Department      string `json:"department"`
	Eligibility     string `json:"eligibility_status"` // "Eligible" / "Ineligible"
	TotalEmployees  int    `json:"total_employees"`
	ActiveEmployees int    `json:"active_employees"`
}

// TrendRow is one month of the eligibility trend.
type TrendRow struct {
	Month             string `json:"month"`
	EligibleEmployees int    `json:"eligible_employees"`
}

// HeadcountTrendRow is one month of headcount vs eligible headcount.
type HeadcountTrendRow struct {
	Month             string          `json:"month"`
	TotalHeadcount    int             `json:"total_headcount"`
	EligibleHeadcount int             `json:"eligible_headcount"`
	EligibleShare     decimal.Decimal `json:"eligible_share_pct"`
}

// =============================================================================
// RESOLVER
// =============================================================================

// eligibleSet returns the canonical-department key set covered by at least
// one entitlement rule.
func (s *Service) eligibleSet(rules []kpi.EntitlementRule) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range rules {
		set[s.norm.Key(r.Department)] = struct{}{}
	}
	return set
}

func (s *Service) isEligible(e kpi.Employee, eligible map[string]struct{}) bool {
	_, ok := eligible[s.norm.Key(e.Department)]
	return ok
}

// selectWithRules loads both row sets and applies employee-side filters.
func (s *Service) selectWithRules(ctx context.Context, req kpi.Request) ([]kpi.Employee, map[string]struct{}, *kpi.Result, error) {
	employees, failed, err := s.selectEmployees(ctx, req)
	if err != nil || failed != nil {
		return nil, nil, failed, err
	}
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return employees, s.eligibleSet(rules), nil, nil
}

// =============================================================================
// METRIC HANDLERS
// =============================================================================

// eligibleEmployees counts distinct eligible employees, grouped as
// requested. The dispatcher injects the active-only default; grouping by
// status deliberately ignores it so both buckets are populated.
func (s *Service) eligibleEmployees(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	if req.GroupBy == "status" {
		// Evaluate without the implicit (or any) status restriction: the
		// fixed Active/Inactive shape needs the whole population.
		req.Filters.Status = ""
	}

	employees, eligible, failed, err := s.selectWithRules(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}

	var rows []kpi.Employee
	for _, e := range employees {
		if s.isEligible(e, eligible) {
			rows = append(rows, e)
		}
	}

	switch req.GroupBy {
	case "gender":
		return kpi.OK(req, "Eligible employees by gender", groupCount(rows, func(e kpi.Employee) string {
			return strings.TrimSpace(e.Gender)
		})), nil
	case "department":
		return kpi.OK(req, "Eligible employees by department", groupCount(rows, func(e kpi.Employee) string {
			return s.norm.Normalize(e.Department)
		})), nil
	case "location":
		return kpi.OK(req, "Eligible employees by location", groupCount(rows, func(e kpi.Employee) string {
			return strings.TrimSpace(e.Location)
		})), nil
	case "status":
		// Fixed shape: exactly two rows, zero-filled.
		counts := map[string]int{"Active": 0, "Inactive": 0}
		for _, r := range groupCount(rows, kpi.Employee.StatusLabel) {
			counts[r.Label] = r.Value
		}
		fixed := []kpi.GroupRow{
			{Label: "Active", Value: counts["Active"]},
			{Label: "Inactive", Value: counts["Inactive"]},
		}
		return kpi.OK(req, "Eligible employees by status", fixed), nil
	default:
		return kpi.OK(req, "Eligible employee count", kpi.CountRow{Value: distinct(rows)}), nil
	}
}

// ineligibleEmployees counts distinct active employees whose department has
// no entitlement rule.
func (s *Service) ineligibleEmployees(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	employees, eligible, failed, err := s.selectWithRules(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}

	var rows []kpi.Employee
	for _, e := range employees {
		if !s.isEligible(e, eligible) {
			rows = append(rows, e)
		}
	}
	return kpi.OK(req, "Ineligible employee count", kpi.CountRow{Value: distinct(rows)}), nil
}

// eligibleDepartments counts distinct canonical departments with at least
// one entitlement rule. Roster contents are irrelevant.
func (s *Service) eligibleDepartments(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	return kpi.OK(req, "Eligible department count", kpi.CountRow{Value: len(s.eligibleSet(rules))}), nil
}

// totalDepartments counts distinct canonical departments present in the
// roster, eligible or not.
func (s *Service) totalDepartments(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	employees, err := s.loadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, e := range employees {
		set[s.norm.Key(e.Department)] = struct{}{}
	}
	return kpi.OK(req, "Total department count", kpi.CountRow{Value: len(set)}), nil
}

// departmentEligibility is the per-department breakdown with the
// Eligible/Ineligible label.
func (s *Service) departmentEligibility(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	employees, eligible, failed, err := s.selectWithRules(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}

	type bucket struct {
		total, active map[kpi.EmployeeID]struct{}
	}
	buckets := make(map[string]*bucket)
	for _, e := range employees {
		dept := s.norm.Normalize(e.Department)
		b := buckets[dept]
		if b == nil {
			b = &bucket{total: make(map[kpi.EmployeeID]struct{}), active: make(map[kpi.EmployeeID]struct{})}
			buckets[dept] = b
		}
		b.total[e.ID] = struct{}{}
		if e.IsActive() {
			b.active[e.ID] = struct{}{}
		}
	}

	rows := make([]DepartmentEligibilityRow, 0, len(buckets))
	for dept, b := range buckets {
		label := "Ineligible"
		if _, ok := eligible[strings.ToLower(dept)]; ok && len(b.active) > 0 {
			label = "Eligible"
		}
		rows = append(rows, DepartmentEligibilityRow{
			Department:      dept,
			Eligibility:     label,
			TotalEmployees:  len(b.total),
			ActiveEmployees: len(b.active),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Department < rows[j].Department })
	return kpi.OK(req, "Department eligibility breakdown", rows), nil
}

// eligibilityByGender is the eligible population grouped by gender.
func (s *Service) eligibilityByGender(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	req.GroupBy = "gender"
	return s.eligibleEmployees(ctx, req)
}

// eligibilityTrend counts eligible employees per join month, optionally
// restricted to joins inside the requested range.
func (s *Service) eligibilityTrend(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	byMonth, failed, err := s.trendBuckets(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}

	months := sortedMonths(byMonth)
	rows := make([]TrendRow, 0, len(months))
	for _, m := range months {
		// The trend is restricted to eligible departments; months where
		// only ineligible employees joined do not appear.
		if len(byMonth[m].eligible) == 0 {
			continue
		}
		rows = append(rows, TrendRow{Month: m, EligibleEmployees: len(byMonth[m].eligible)})
	}
	return kpi.OK(req, "Eligible employees by join month", rows), nil
}

// headcountVsEligibility reports total vs eligible headcount per join
// month. Ineligible employees stay in the totals.
func (s *Service) headcountVsEligibility(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	byMonth, failed, err := s.trendBuckets(ctx, req)
	if err != nil || failed != nil {
		return failed, err
	}

	months := sortedMonths(byMonth)
	rows := make([]HeadcountTrendRow, 0, len(months))
	for _, m := range months {
		b := byMonth[m]
		row := HeadcountTrendRow{
			Month:             m,
			TotalHeadcount:    len(b.total),
			EligibleHeadcount: len(b.eligible),
		}
		if len(b.total) > 0 {
			row.EligibleShare = decimal.NewFromInt(int64(len(b.eligible) * 100)).
				Div(decimal.NewFromInt(int64(len(b.total)))).Round(1)
		}
		rows = append(rows, row)
	}
	return kpi.OK(req, "Headcount vs eligible headcount by join month", rows), nil
}

// =============================================================================
// TREND PLUMBING
// =============================================================================

type trendBucket struct {
	total    map[kpi.EmployeeID]struct{}
	eligible map[kpi.EmployeeID]struct{}
}

// trendBuckets groups the filtered population by join month. The time
// range restricts JOIN dates here, not roster lifecycle.
func (s *Service) trendBuckets(ctx context.Context, req kpi.Request) (map[string]*trendBucket, *kpi.Result, error) {
	// Lifecycle windowing does not apply to trends; strip the range before
	// the generic selection and apply it to join dates below.
	tr := req.TimeRange
	req.TimeRange = nil

	employees, eligible, failed, err := s.selectWithRules(ctx, req)
	if err != nil || failed != nil {
		return nil, failed, err
	}

	var w *kpi.Window
	if tr != nil {
		parsed, err := kpi.ParseWindow(*tr)
		if err != nil {
			req.TimeRange = tr
			return nil, kpi.Fail(req, "Invalid date format. Use YYYY-MM"), nil
		}
		w = &parsed
	}

	byMonth := make(map[string]*trendBucket)
	for _, e := range employees {
		if w != nil && !w.Contains(e.JoinDate) {
			continue
		}
		m := kpi.MonthOf(e.JoinDate).String()
		b := byMonth[m]
		if b == nil {
			b = &trendBucket{total: make(map[kpi.EmployeeID]struct{}), eligible: make(map[kpi.EmployeeID]struct{})}
			byMonth[m] = b
		}
		b.total[e.ID] = struct{}{}
		if s.isEligible(e, eligible) {
			b.eligible[e.ID] = struct{}{}
		}
	}
	return byMonth, nil, nil
}

func sortedMonths(byMonth map[string]*trendBucket) []string {
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}
