/*
source.go - Read-only data source interface

PURPOSE:
  Defines the interface between the metric families and the tabular data
  source holding Employee and EntitlementRule rows. The engine is strictly
  read-only: there are no write methods, by contract.

CONCURRENCY:
  Implementations must allow unlimited concurrent readers. Each request is
  evaluated independently against a consistent snapshot of the rows; the
  engine holds no shared mutable state between requests.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite-file source
  - kpi/store:    In-memory source for tests and scenarios

SEE ALSO:
  - store/sqlite/sqlite.go
  - kpi/store/memory.go
*/
package kpi

import "context"

// DataSource provides the two read-only row sets the engine aggregates
// over. Failures should be returned wrapped so callers can classify them
// with errors.Is(err, ErrDataSource).
type DataSource interface {
	// Employees returns every workforce roster row.
	Employees(ctx context.Context) ([]Employee, error)

	// EntitlementRules returns every uniform entitlement rule.
	EntitlementRules(ctx context.Context) ([]EntitlementRule, error)
}
