/*
Package entitlement implements the uniform-entitlement metric family.

PURPOSE:
  Answers questions about the entitlement rule set itself (unique SKU
  counts, breakdowns by department/gender/location/frequency, the coverage
  matrix, the full rule listing) and - the algorithmic core - projects
  future recurring issuance demand per employee (see demand.go).

ARCHITECTURE:
  Mirrors roster.Service: one Service binding the data source, the shared
  department normalizer, and the projection configuration (cutoff date,
  default horizon), registering one kpi.MetricSpec per metric.

SEE ALSO:
  - demand.go: Demand projection engine
  - matrix.go: Department x SKU coverage pivot
*/
package entitlement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warp/uniform-kpi/kpi"
)

// Service evaluates entitlement metrics and demand projections.
type Service struct {
	source kpi.DataSource
	norm   *kpi.Normalizer

	// cutoff is the last real-world issuance date; projections only count
	// occurrences strictly after it.
	cutoff time.Time

	// horizonMonths is the default window length (months after cutoff)
	// offered to callers that want "the next year" without spelling it out.
	horizonMonths int
}

func NewService(source kpi.DataSource, norm *kpi.Normalizer, cutoff time.Time, horizonMonths int) *Service {
	if horizonMonths <= 0 {
		horizonMonths = 12
	}
	return &Service{source: source, norm: norm, cutoff: cutoff, horizonMonths: horizonMonths}
}

// Cutoff returns the configured last-issuance date.
func (s *Service) Cutoff() time.Time { return s.cutoff }

// DefaultWindow is the fixed default projection window: the horizon months
// immediately following the cutoff.
func (s *Service) DefaultWindow() kpi.Window {
	first := kpi.MonthOf(s.cutoff).AddMonths(1)
	return kpi.Window{From: first, To: first.AddMonths(s.horizonMonths - 1)}
}

// Register wires every entitlement metric into the dispatcher.
func (s *Service) Register(d *kpi.Dispatcher) {
	d.Register(kpi.MetricSpec{Name: kpi.MetricUniqueSKUs, Handler: s.uniqueSKUs})
	d.Register(kpi.MetricSpec{Name: kpi.MetricSKUsByDepartment, Handler: s.skusByDepartment})
	d.Register(kpi.MetricSpec{Name: kpi.MetricSKUsByGender, Handler: s.skusByGender})
	d.Register(kpi.MetricSpec{Name: kpi.MetricSKUsByLocation, Handler: s.skusByLocation})
	d.Register(kpi.MetricSpec{Name: kpi.MetricSKUsByFrequency, Handler: s.skusByFrequency})
	d.Register(kpi.MetricSpec{Name: kpi.MetricCoverageMatrix, Handler: s.coverageMatrix})
	d.Register(kpi.MetricSpec{Name: kpi.MetricAllEntitlements, Handler: s.allEntitlements})
	d.Register(kpi.MetricSpec{Name: kpi.MetricSKUDemand, Handler: s.skuDemand})
	d.Register(kpi.MetricSpec{Name: kpi.MetricEmployeesWithDemand, Handler: s.employeesWithDemand})
}

// =============================================================================
// ROW SHAPES
// =============================================================================

// SKUGroupRow is one bucket of a SKU count breakdown.
type SKUGroupRow struct {
	Label    string `json:"label"`
	SKUCount int    `json:"sku_count"`
	Records  int    `json:"total_entitlement_records,omitempty"`
}

// FrequencyRow is one bucket of the frequency breakdown, with the human
// label used on the dashboard.
type FrequencyRow struct {
	FrequencyMonths int    `json:"frequency_months"`
	Frequency       string `json:"frequency_label"`
	SKUCount        int    `json:"sku_count"`
}

// RuleRow is one normalized entitlement rule in the full listing.
type RuleRow struct {
	SKU             string `json:"sku"`
	Department      string `json:"department"`
	Gender          string `json:"gender"`
	Location        string `json:"base_location"`
	FrequencyMonths int    `json:"frequency_months"`
	Quantity        int    `json:"quantity_per_issue"`
}

// =============================================================================
// LOADING
// =============================================================================

func (s *Service) loadRules(ctx context.Context) ([]kpi.EntitlementRule, error) {
	rules, err := s.source.EntitlementRules(ctx)
	return rules, kpi.NewSourceError("entitlement_rules", err)
}

func (s *Service) loadEmployees(ctx context.Context) ([]kpi.Employee, error) {
	employees, err := s.source.Employees(ctx)
	return employees, kpi.NewSourceError("employees", err)
}

// selectRules loads the rules and applies the rule-side filters.
func (s *Service) selectRules(ctx context.Context, req kpi.Request) ([]kpi.EntitlementRule, error) {
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	match := kpi.RuleFilter(req.Filters, s.norm)
	var out []kpi.EntitlementRule
	for _, r := range rules {
		if match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// =============================================================================
// SKU COUNT METRICS
// =============================================================================

func (s *Service) uniqueSKUs(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rules, err := s.selectRules(ctx, req)
	if err != nil {
		return nil, err
	}
	skus := make(map[string]struct{})
	for _, r := range rules {
		skus[skuKey(r.ItemName)] = struct{}{}
	}
	return kpi.OK(req, "Total unique SKUs in the system", kpi.CountRow{Value: len(skus)}), nil
}

func (s *Service) skusByDepartment(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rows, err := s.skuBreakdown(ctx, req, func(r kpi.EntitlementRule) string {
		return s.norm.Normalize(r.Department)
	}, true)
	if err != nil {
		return nil, err
	}
	return kpi.OK(req, "SKU count by department", rows), nil
}

func (s *Service) skusByGender(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rows, err := s.skuBreakdown(ctx, req, func(r kpi.EntitlementRule) string {
		return r.GenderScope.Label()
	}, false)
	if err != nil {
		return nil, err
	}
	return kpi.OK(req, "SKU count by gender", rows), nil
}

func (s *Service) skusByLocation(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rows, err := s.skuBreakdown(ctx, req, func(r kpi.EntitlementRule) string {
		return strings.TrimSpace(r.LocationScope)
	}, false)
	if err != nil {
		return nil, err
	}
	return kpi.OK(req, "SKU count by location", rows), nil
}

func (s *Service) skusByFrequency(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rules, err := s.selectRules(ctx, req)
	if err != nil {
		return nil, err
	}

	buckets := make(map[int]map[string]struct{})
	for _, r := range rules {
		if buckets[r.FrequencyMonths] == nil {
			buckets[r.FrequencyMonths] = make(map[string]struct{})
		}
		buckets[r.FrequencyMonths][skuKey(r.ItemName)] = struct{}{}
	}

	rows := make([]FrequencyRow, 0, len(buckets))
	for freq, skus := range buckets {
		rows = append(rows, FrequencyRow{
			FrequencyMonths: freq,
			Frequency:       frequencyLabel(freq),
			SKUCount:        len(skus),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FrequencyMonths < rows[j].FrequencyMonths })
	return kpi.OK(req, "SKU count by frequency", rows), nil
}

// allEntitlements is the complete normalized rule listing for client-side
// filtering.
func (s *Service) allEntitlements(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rules, err := s.selectRules(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([]RuleRow, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, RuleRow{
			SKU:             strings.TrimSpace(r.ItemName),
			Department:      s.norm.Normalize(r.Department),
			Gender:          r.GenderScope.Label(),
			Location:        strings.TrimSpace(r.LocationScope),
			FrequencyMonths: r.FrequencyMonths,
			Quantity:        r.QuantityPerIssue,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Department != rows[j].Department {
			return rows[i].Department < rows[j].Department
		}
		return rows[i].SKU < rows[j].SKU
	})
	return kpi.OK(req, "Complete list of uniform entitlement rules", rows), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// skuBreakdown counts distinct SKUs per label, sorted by count descending.
func (s *Service) skuBreakdown(ctx context.Context, req kpi.Request, label func(kpi.EntitlementRule) string, withRecords bool) ([]SKUGroupRow, error) {
	rules, err := s.selectRules(ctx, req)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		skus    map[string]struct{}
		records int
	}
	buckets := make(map[string]*bucket)
	for _, r := range rules {
		l := label(r)
		b := buckets[l]
		if b == nil {
			b = &bucket{skus: make(map[string]struct{})}
			buckets[l] = b
		}
		b.skus[skuKey(r.ItemName)] = struct{}{}
		b.records++
	}

	rows := make([]SKUGroupRow, 0, len(buckets))
	for l, b := range buckets {
		row := SKUGroupRow{Label: l, SKUCount: len(b.skus)}
		if withRecords {
			row.Records = b.records
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SKUCount != rows[j].SKUCount {
			return rows[i].SKUCount > rows[j].SKUCount
		}
		return rows[i].Label < rows[j].Label
	})
	return rows, nil
}

func skuKey(item string) string { return strings.ToLower(strings.TrimSpace(item)) }

func frequencyLabel(months int) string {
	if months == 0 {
		return "One-time"
	}
	return fmt.Sprintf("Every %d months", months)
}
