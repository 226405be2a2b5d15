/*
demand.go - Demand projection engine

PURPOSE:
  Computes, for a requested time window, how many units of each SKU will be
  required and how many distinct employees will receive at least one
  issuance. This is the engine's algorithmic core.

MODEL:
  An employee covered by a recurring rule (frequency_months > 0) receives
  the item on join_date, then every frequency_months after that.
  Projection keeps only occurrences that are strictly AFTER the cutoff
  date (the last real-world issuance) and inside the requested window.

WINDOW MODES (mutually exclusive):
  - Range:  [from_month, to_month], inclusive. Rejected with a structured
            message when the end month is not strictly after the cutoff
            month - the engine only projects future demand.
  - Months: an explicit set of target months. Beats a range when both are
            supplied.

OCCURRENCE GENERATION:
  The k-range of join_date + k*frequency is computed arithmetically from
  the month distance to the window's lower bound, then walked forward
  until the first occurrence past the window end. There is no fixed
  candidate horizon: completeness holds for any frequency and any window.

AGGREGATION:
  Occurrences group by (department, item, frequency, gender scope,
  location scope, quantity): distinct employees, total occurrences, and
  total quantity = occurrences x quantity_per_issue. The summary partitions
  rows into common (gender scope Both) vs department/gender-specific and
  carries the grand total plus the average quantity per window month.
*/
package entitlement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/uniform-kpi/kpi"
)

// =============================================================================
// ROW SHAPES
// =============================================================================

// DemandRow is one aggregated SKU-group of projected demand.
type DemandRow struct {
	Department          string `json:"department"`
	ItemName            string `json:"item_name"`
	FrequencyMonths     int    `json:"frequency_months"`
	GenderScope         string `json:"sku_gender"`
	LocationScope       string `json:"base_location"`
	QuantityPerIssue    int    `json:"quantity_per_issue"`
	UniqueEmployees     int    `json:"unique_employees"`
	TotalOccurrences    int    `json:"total_occurrences"`
	TotalQuantityNeeded int    `json:"total_quantity_needed"`
}

// DemandSummary is the envelope summary of a sku_demand evaluation.
type DemandSummary struct {
	TotalSKUs              int             `json:"total_skus"`
	CommonSKUs             int             `json:"common_skus"`
	DepartmentSpecificSKUs int             `json:"department_specific_skus"`
	TotalQuantity          int             `json:"total_quantity"`
	AvgQuantityPerMonth    decimal.Decimal `json:"avg_quantity_per_month"`
}

// EmployeesWithDemandRow is one per-gender row (or the TOTAL row) of the
// distinct-employee count.
type EmployeesWithDemandRow struct {
	Gender string `json:"gender"`
	Value  int    `json:"employees_with_demand"`
}

// =============================================================================
// PROJECTION WINDOW
// =============================================================================

// projectionWindow is the resolved time specification of a demand request:
// date bounds plus, in explicit-months mode, the month membership set.
type projectionWindow struct {
	start, end time.Time
	months     map[kpi.Month]struct{} // nil in range mode
	spanMonths int
}

// resolveWindow turns the request's time specification into a projection
// window, applying the mode rules: explicit months beat a range; a range
// must end strictly after the cutoff month; either mode must parse.
// A nil window with a non-nil Result means the request was rejected.
func (s *Service) resolveWindow(req kpi.Request) (*projectionWindow, *kpi.Result) {
	if len(req.Filters.Months) > 0 {
		set := make(map[kpi.Month]struct{}, len(req.Filters.Months))
		var lo, hi kpi.Month
		for _, raw := range req.Filters.Months {
			m, err := kpi.ParseMonth(raw)
			if err != nil {
				return nil, kpi.Fail(req, "Invalid date format. Use YYYY-MM")
			}
			if len(set) == 0 || m.Before(lo) {
				lo = m
			}
			if len(set) == 0 || m.After(hi) {
				hi = m
			}
			set[m] = struct{}{}
		}
		return &projectionWindow{
			start:      lo.Start(),
			end:        hi.End(),
			months:     set,
			spanMonths: len(set),
		}, nil
	}

	if req.TimeRange == nil || req.TimeRange.From == "" || req.TimeRange.To == "" {
		return nil, kpi.Fail(req, "Please provide either 'time_range' (from/to) or 'months'")
	}
	w, err := kpi.ParseWindow(*req.TimeRange)
	if err != nil {
		return nil, kpi.Fail(req, "Invalid date format. Use YYYY-MM")
	}

	cutoffMonth := kpi.MonthOf(s.cutoff)
	if !w.To.After(cutoffMonth) {
		return nil, kpi.Fail(req, fmt.Sprintf(
			"Please select dates after %s %d for future demand",
			cutoffMonth.Month.String()[:3], cutoffMonth.Year))
	}

	return &projectionWindow{
		start:      w.Start(),
		end:        w.End(),
		spanMonths: kpi.MonthsBetween(w.From, w.To) + 1,
	}, nil
}

// countOccurrences returns how many issuance dates join + k*frequency fall
// strictly after the cutoff and inside the window. The starting k is
// derived from month arithmetic (one cycle early to absorb day-of-month
// drift), and the walk stops at the first date past the window end.
func (s *Service) countOccurrences(join time.Time, frequency int, w *projectionWindow) int {
	if frequency <= 0 {
		return 0
	}

	lower := s.cutoff.AddDate(0, 0, 1)
	if w.start.After(lower) {
		lower = w.start
	}

	k := 0
	if join.Before(lower) {
		k = kpi.MonthsBetween(kpi.MonthOf(join), kpi.MonthOf(lower)) / frequency
		if k > 0 {
			k--
		}
	}

	count := 0
	for {
		d := join.AddDate(0, k*frequency, 0)
		if d.After(w.end) {
			return count
		}
		if d.After(s.cutoff) && !d.Before(w.start) {
			if w.months == nil {
				count++
			} else if _, ok := w.months[kpi.MonthOf(d)]; ok {
				count++
			}
		}
		k++
	}
}

// =============================================================================
// SKU DEMAND
// =============================================================================

type demandKey struct {
	department string
	item       string
	frequency  int
	scope      kpi.GenderScope
	location   string
	quantity   int
}

type demandAgg struct {
	employees   map[kpi.EmployeeID]struct{}
	occurrences int
}

func (s *Service) skuDemand(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	w, rejected := s.resolveWindow(req)
	if rejected != nil {
		return rejected, nil
	}
	if w.months != nil {
		// Explicit months took precedence; do not echo the ignored range.
		req.TimeRange = nil
	}

	employees, err := s.loadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	// Demand metrics split the filter set: department/gender restrict the
	// employee side, sku restricts the rule side. The join below applies
	// the rule's own scoping on top.
	empMatch := kpi.EmployeeFilter(kpi.Filters{
		Department: req.Filters.Department,
		Gender:     req.Filters.Gender,
	}, s.norm)
	ruleMatch := kpi.RuleFilter(kpi.Filters{SKU: req.Filters.SKU}, s.norm)

	agg := make(map[demandKey]*demandAgg)
	for _, e := range employees {
		if !e.IsActive() || !empMatch(e) {
			continue
		}
		for _, r := range rules {
			if !r.Recurring() || !ruleMatch(r) || !kpi.RuleApplies(r, e, s.norm) {
				continue
			}
			n := s.countOccurrences(e.JoinDate, r.FrequencyMonths, w)
			if n == 0 {
				continue
			}
			key := demandKey{
				department: s.norm.Normalize(r.Department),
				item:       strings.TrimSpace(r.ItemName),
				frequency:  r.FrequencyMonths,
				scope:      r.GenderScope,
				location:   strings.TrimSpace(r.LocationScope),
				quantity:   r.QuantityPerIssue,
			}
			a := agg[key]
			if a == nil {
				a = &demandAgg{employees: make(map[kpi.EmployeeID]struct{})}
				agg[key] = a
			}
			a.employees[e.ID] = struct{}{}
			a.occurrences += n
		}
	}

	rows := make([]DemandRow, 0, len(agg))
	for key, a := range agg {
		rows = append(rows, DemandRow{
			Department:          key.department,
			ItemName:            key.item,
			FrequencyMonths:     key.frequency,
			GenderScope:         key.scope.Label(),
			LocationScope:       key.location,
			QuantityPerIssue:    key.quantity,
			UniqueEmployees:     len(a.employees),
			TotalOccurrences:    a.occurrences,
			TotalQuantityNeeded: a.occurrences * key.quantity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalQuantityNeeded != rows[j].TotalQuantityNeeded {
			return rows[i].TotalQuantityNeeded > rows[j].TotalQuantityNeeded
		}
		if rows[i].ItemName != rows[j].ItemName {
			return rows[i].ItemName < rows[j].ItemName
		}
		return rows[i].Department < rows[j].Department
	})

	res := kpi.OK(req, "SKU demand calculation", rows)
	res.Summary = s.summarize(rows, w)
	return res, nil
}

// summarize partitions rows into common vs department/gender-specific and
// totals them.
func (s *Service) summarize(rows []DemandRow, w *projectionWindow) DemandSummary {
	summary := DemandSummary{TotalSKUs: len(rows)}
	for _, r := range rows {
		if r.GenderScope == kpi.ScopeBoth.Label() {
			summary.CommonSKUs++
		} else {
			summary.DepartmentSpecificSKUs++
		}
		summary.TotalQuantity += r.TotalQuantityNeeded
	}
	if w.spanMonths > 0 {
		summary.AvgQuantityPerMonth = decimal.NewFromInt(int64(summary.TotalQuantity)).
			Div(decimal.NewFromInt(int64(w.spanMonths))).Round(2)
	}
	return summary
}

// =============================================================================
// EMPLOYEES WITH DEMAND
// =============================================================================

// employeesWithDemand counts distinct employees receiving at least one item
// in the window, overall and per gender. Deduplication is at the employee
// level only; which SKU triggers the demand is irrelevant.
func (s *Service) employeesWithDemand(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	if req.TimeRange == nil || req.TimeRange.From == "" || req.TimeRange.To == "" {
		return kpi.Fail(req, "Please add a date range (from/to)"), nil
	}
	w, rejected := s.resolveWindow(req)
	if rejected != nil {
		return rejected, nil
	}

	employees, err := s.loadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	empMatch := kpi.EmployeeFilter(kpi.Filters{
		Department: req.Filters.Department,
		Gender:     req.Filters.Gender,
	}, s.norm)

	byGender := make(map[string]map[kpi.EmployeeID]struct{})
	total := make(map[kpi.EmployeeID]struct{})
	for _, e := range employees {
		if !e.IsActive() || !empMatch(e) {
			continue
		}
		for _, r := range rules {
			if !r.Recurring() || !kpi.RuleApplies(r, e, s.norm) {
				continue
			}
			if s.countOccurrences(e.JoinDate, r.FrequencyMonths, w) == 0 {
				continue
			}
			g := strings.TrimSpace(e.Gender)
			if byGender[g] == nil {
				byGender[g] = make(map[kpi.EmployeeID]struct{})
			}
			byGender[g][e.ID] = struct{}{}
			total[e.ID] = struct{}{}
			break // one matching rule is enough for this employee
		}
	}

	rows := make([]EmployeesWithDemandRow, 0, len(byGender)+1)
	for g, ids := range byGender {
		rows = append(rows, EmployeesWithDemandRow{Gender: g, Value: len(ids)})
	}
	rows = append(rows, EmployeesWithDemandRow{Gender: "TOTAL", Value: len(total)})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Gender < rows[j].Gender })

	return kpi.OK(req, "Distinct employees receiving items in the window", rows), nil
}
