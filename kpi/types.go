/*
Package kpi provides the core KPI aggregation engine.

PURPOSE:
  This package contains the domain types and machinery shared by every
  metric family: the workforce roster model, the uniform entitlement rule
  model, the request/result envelope, month arithmetic, department alias
  normalization, filter predicates, and the metric dispatcher.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: One workforce member (externally supplied, read-only)
  - EntitlementRule: One department x item x gender x location issuance policy
  - GenderScope: Who a rule covers (Male, Female, or Both)
  - Request/Result: The structured question and its uniform answer envelope

DESIGN PRINCIPLES:
  1. Read-only: The engine never mutates roster or entitlement data
  2. Case-insensitivity: All string comparisons are case-insensitive
  3. Normalization first: Departments are aliased before any equality check
  4. Uniform envelope: Every metric answers with the same Result shape

USAGE:
  src := store.NewMemory()
  d := kpi.NewDispatcher()
  roster.NewService(src, kpi.NewNormalizer()).Register(d)
  res, err := d.Evaluate(ctx, kpi.Request{Metric: kpi.MetricActive})

SEE ALSO:
  - month.go: Year-month value type and window arithmetic
  - normalize.go: Department alias normalization
  - predicate.go: Filter sanitizing and match conditions
  - dispatch.go: Metric registry and envelope construction
*/
package kpi

import (
	"strings"
	"time"
)

// =============================================================================
// EMPLOYEE - One workforce roster row
// =============================================================================

type EmployeeID string

type Employee struct {
	ID            EmployeeID
	Status        string // free text, "Active"/"Inactive" compared case-insensitively
	Department    string // free text, matched against rules after normalization
	Gender        string // free text label, e.g. "Male"/"Female"
	Location      string // free text base location
	JoinDate      time.Time
	RelievingDate *time.Time // nil until the employee leaves; >= JoinDate when set
}

func (e Employee) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "active")
}

// ActiveIn reports whether the employee was on the roster at any point in
// the inclusive window [from, to]: joined no later than the window end and
// not relieved before the window start.
func (e Employee) ActiveIn(from, to time.Time) bool {
	if e.JoinDate.After(to) {
		return false
	}
	return e.RelievingDate == nil || !e.RelievingDate.Before(from)
}

// StatusLabel maps the free-text status onto the fixed chart labels.
func (e Employee) StatusLabel() string {
	if e.IsActive() {
		return "Active"
	}
	return "Inactive"
}

// =============================================================================
// ENTITLEMENT RULE - One issuance policy row
// =============================================================================

// LocationAll is the wildcard location scope meaning "every base location".
const LocationAll = "ALL"

type GenderScope string

const (
	ScopeMale   GenderScope = "M"
	ScopeFemale GenderScope = "F"
	ScopeBoth   GenderScope = "B"
)

// ParseGenderScope normalizes the raw gender column of entitlement data
// ("M", "F", "B", or spelled-out variants) to a GenderScope. Unknown values
// default to ScopeBoth so a malformed rule widens rather than silently
// dropping employees.
func ParseGenderScope(raw string) GenderScope {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MALE":
		return ScopeMale
	case "F", "FEMALE":
		return ScopeFemale
	default:
		return ScopeBoth
	}
}

// Label returns the display form used in result rows.
func (s GenderScope) Label() string {
	switch s {
	case ScopeMale:
		return "Male"
	case ScopeFemale:
		return "Female"
	default:
		return "Both/Common"
	}
}

// Covers reports whether the scope applies to an employee's gender label.
// "Both" covers everyone; otherwise the first letter of the label decides
// (matching "Male"/"Female" and single-letter variants alike).
func (s GenderScope) Covers(gender string) bool {
	if s == ScopeBoth {
		return true
	}
	g := strings.ToUpper(strings.TrimSpace(gender))
	if g == "" {
		return false
	}
	return g[:1] == string(s)
}

type EntitlementRule struct {
	Department       string // free text, pre-normalization
	ItemName         string // SKU identifier
	GenderScope      GenderScope
	LocationScope    string // specific location, or LocationAll
	FrequencyMonths  int    // 0 = one-time issuance, never recurs
	QuantityPerIssue int
}

// Recurring reports whether the rule generates future issuances at all.
func (r EntitlementRule) Recurring() bool { return r.FrequencyMonths > 0 }

// CoversLocation reports whether the rule's location scope admits the given
// base location, honoring the ALL wildcard.
func (r EntitlementRule) CoversLocation(location string) bool {
	scope := strings.TrimSpace(r.LocationScope)
	if strings.EqualFold(scope, LocationAll) {
		return true
	}
	return strings.EqualFold(scope, strings.TrimSpace(location))
}

// =============================================================================
// REQUEST - Structured KPI question
// =============================================================================

// TimeRange is an inclusive month-granularity window.
type TimeRange struct {
	From string `json:"from"` // "YYYY-MM"
	To   string `json:"to"`   // "YYYY-MM"
}

// Filters carries the optional filter set of a request. Empty values mean
// "not provided" and are never compared; see Filters.Sanitize.
type Filters struct {
	Department string   `json:"department,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Location   string   `json:"location,omitempty"`
	Status     string   `json:"status,omitempty"`
	SKU        string   `json:"sku,omitempty"`
	Months     []string `json:"months,omitempty"` // explicit target months, beats TimeRange
}

// Request is the structured question produced upstream. The engine treats
// the producer as untrusted and sanitizes the request itself.
type Request struct {
	Metric    string     `json:"metric"`
	Filters   Filters    `json:"filters"`
	GroupBy   string     `json:"group_by,omitempty"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
}

// =============================================================================
// RESULT - Uniform answer envelope
// =============================================================================

// Result is the uniform envelope returned for every metric. Callers only
// ever need per-metric knowledge of Data.
type Result struct {
	Metric    string     `json:"metric"`
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Filters   Filters    `json:"filters"`
	GroupBy   string     `json:"group_by,omitempty"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
	Months    []string   `json:"months,omitempty"`
	Summary   any        `json:"summary,omitempty"`
	Data      any        `json:"data"`
}

// OK builds a successful envelope echoing the request.
func OK(req Request, message string, data any) *Result {
	return &Result{
		Metric:    req.Metric,
		Success:   true,
		Message:   message,
		Filters:   req.Filters,
		GroupBy:   req.GroupBy,
		TimeRange: req.TimeRange,
		Months:    req.Filters.Months,
		Data:      data,
	}
}

// Fail builds an unsuccessful envelope with a human-readable message and
// empty data. Input problems are reported this way, never as Go errors.
func Fail(req Request, message string) *Result {
	return &Result{
		Metric:    req.Metric,
		Success:   false,
		Message:   message,
		Filters:   req.Filters,
		GroupBy:   req.GroupBy,
		TimeRange: req.TimeRange,
		Data:      []any{},
	}
}

// =============================================================================
// COMMON ROW SHAPES
// =============================================================================

// CountRow is a single flat count.
type CountRow struct {
	Value int `json:"value"`
}

// GroupRow is one bucket of a grouped count.
type GroupRow struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}
