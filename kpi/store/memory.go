/*
Package store provides an in-memory DataSource implementation.

PURPOSE:
  Test and scenario double for the sqlite-backed source. Holds the two row
  sets in slices behind a RWMutex so concurrent evaluations read safely.

USAGE:
  src := store.NewMemory()
  src.AddEmployees(kpi.Employee{...})
  src.AddRules(kpi.EntitlementRule{...})

SEE ALSO:
  - store/sqlite/sqlite.go: Production implementation
*/
package store

import (
	"context"
	"sync"

	"github.com/warp/uniform-kpi/kpi"
)

// Memory is an in-memory kpi.DataSource.
type Memory struct {
	mu        sync.RWMutex
	employees []kpi.Employee
	rules     []kpi.EntitlementRule
}

func NewMemory() *Memory {
	return &Memory{}
}

// AddEmployees appends roster rows.
func (m *Memory) AddEmployees(employees ...kpi.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = append(m.employees, employees...)
}

// AddRules appends entitlement rules.
func (m *Memory) AddRules(rules ...kpi.EntitlementRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rules...)
}

// Reset clears both row sets.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = nil
	m.rules = nil
}

func (m *Memory) Employees(ctx context.Context) ([]kpi.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]kpi.Employee, len(m.employees))
	copy(out, m.employees)
	return out, nil
}

func (m *Memory) EntitlementRules(ctx context.Context) ([]kpi.EntitlementRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]kpi.EntitlementRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}
