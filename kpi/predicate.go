/*
predicate.go - Filter sanitizing and composable match conditions

PURPOSE:
  Turns a request's filter set into conjunctions of case-insensitive
  equality predicates over employees and entitlement rules. The upstream
  request producer is a language model and cannot be trusted to omit keys
  it has no value for - it sends empty strings or a literal "..." instead.
  Those placeholders are dropped here, silently, before anything is
  compared.

FILTER APPLICATION IS METRIC-SPECIFIC:
  Population metrics apply the whole filter set to employees. Demand
  metrics apply department/gender to employees and sku to rules
  independently, then join. Each metric family picks the predicate builder
  it needs; the sanitizing rules are shared.
*/
package kpi

import "strings"

// placeholder is the ellipsis-style sentinel the upstream producer emits
// for "no value".
const placeholder = "..."

// cleanValue trims v and reports whether it carries a real filter value.
func cleanValue(v string) (string, bool) {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" || trimmed == placeholder {
		return "", false
	}
	return trimmed, true
}

// Sanitize returns a copy of the filter set with absent/placeholder values
// cleared, so downstream code can treat "set" and "non-empty" as the same
// thing.
func (f Filters) Sanitize() Filters {
	out := Filters{}
	if v, ok := cleanValue(f.Department); ok {
		out.Department = v
	}
	if v, ok := cleanValue(f.Gender); ok {
		out.Gender = v
	}
	if v, ok := cleanValue(f.Location); ok {
		out.Location = v
	}
	if v, ok := cleanValue(f.Status); ok {
		out.Status = v
	}
	if v, ok := cleanValue(f.SKU); ok {
		out.SKU = v
	}
	for _, m := range f.Months {
		if v, ok := cleanValue(m); ok {
			out.Months = append(out.Months, v)
		}
	}
	return out
}

// =============================================================================
// PREDICATES
// =============================================================================

type EmployeePredicate func(Employee) bool

type RulePredicate func(EntitlementRule) bool

// EmployeeFilter builds the conjunction of employee-side conditions for a
// sanitized filter set. Department equality goes through the normalizer;
// everything else is case-insensitive string equality.
func EmployeeFilter(f Filters, n *Normalizer) EmployeePredicate {
	var preds []EmployeePredicate
	if f.Department != "" {
		dept := f.Department
		preds = append(preds, func(e Employee) bool { return n.Equal(e.Department, dept) })
	}
	if f.Gender != "" {
		gender := f.Gender
		preds = append(preds, func(e Employee) bool { return strings.EqualFold(strings.TrimSpace(e.Gender), gender) })
	}
	if f.Location != "" {
		location := f.Location
		preds = append(preds, func(e Employee) bool { return strings.EqualFold(strings.TrimSpace(e.Location), location) })
	}
	if f.Status != "" {
		status := f.Status
		preds = append(preds, func(e Employee) bool { return strings.EqualFold(strings.TrimSpace(e.Status), status) })
	}
	return allEmployees(preds)
}

// RuleFilter builds the rule-side conditions: department (normalized) and
// sku equality.
func RuleFilter(f Filters, n *Normalizer) RulePredicate {
	var preds []RulePredicate
	if f.Department != "" {
		dept := f.Department
		preds = append(preds, func(r EntitlementRule) bool { return n.Equal(r.Department, dept) })
	}
	if f.SKU != "" {
		sku := f.SKU
		preds = append(preds, func(r EntitlementRule) bool { return strings.EqualFold(strings.TrimSpace(r.ItemName), sku) })
	}
	return allRules(preds)
}

// RuleApplies reports whether an entitlement rule covers an employee:
// same canonical department, gender scope covers the employee, and the
// location scope admits the employee's base (wildcard-aware). Activity and
// frequency checks belong to the caller.
func RuleApplies(r EntitlementRule, e Employee, n *Normalizer) bool {
	return n.Equal(r.Department, e.Department) &&
		r.GenderScope.Covers(e.Gender) &&
		r.CoversLocation(e.Location)
}

func allEmployees(preds []EmployeePredicate) EmployeePredicate {
	return func(e Employee) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

func allRules(preds []RulePredicate) RulePredicate {
	return func(r EntitlementRule) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}
