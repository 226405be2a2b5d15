/*
Package sqlite provides the SQLite-backed implementation of kpi.DataSource.

PURPOSE:
  The roster and entitlement data live in a single relational file,
  imported from the HR system's spreadsheets. This package owns the
  schema, the row scanning, and the seeding used by demo scenarios.

INTERFACES IMPLEMENTED:
  kpi.DataSource: Employees, EntitlementRules

KEY TABLES:
  employees:         One row per workforce member
  entitlement_rules: One row per department x item x gender x location policy

CONCURRENCY:
  The engine only reads; SQLite is opened in WAL mode so concurrent
  evaluations never block each other. Seeding (scenario loads) takes the
  write lock through database/sql as usual.

DATE HANDLING:
  Dates are stored as "YYYY-MM-DD" TEXT, the format the source
  spreadsheets use. Parsing happens at scan time; a row with an
  unparseable join date is a data defect and fails the load loudly rather
  than skewing every metric silently.

USAGE:
  store, err := sqlite.New("./data/uniform.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - kpi/source.go: Interface definition
  - kpi/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/uniform-kpi/kpi"
)

const dateLayout = "2006-01-02"

// Store implements kpi.DataSource backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pool connection to :memory: is its own database; pin the
		// pool to one connection so the schema survives.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		department TEXT NOT NULL,
		gender TEXT NOT NULL,
		location TEXT NOT NULL,
		join_date TEXT NOT NULL,
		relieving_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department);
	CREATE INDEX IF NOT EXISTS idx_employees_status ON employees(status);

	CREATE TABLE IF NOT EXISTS entitlement_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		department TEXT NOT NULL,
		item_name TEXT NOT NULL,
		gender TEXT NOT NULL,
		base_location TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		quantity INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rules_department ON entitlement_rules(department);
	CREATE INDEX IF NOT EXISTS idx_rules_item ON entitlement_rules(item_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DATA SOURCE - read side
// =============================================================================

// Employees returns every workforce roster row.
func (s *Store) Employees(ctx context.Context) ([]kpi.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, department, gender, location, join_date, relieving_date
		FROM employees`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var out []kpi.Employee
	for rows.Next() {
		var (
			e         kpi.Employee
			id        string
			joinRaw   string
			relieving sql.NullString
		)
		if err := rows.Scan(&id, &e.Status, &e.Department, &e.Gender, &e.Location, &joinRaw, &relieving); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.ID = kpi.EmployeeID(id)
		e.JoinDate, err = time.Parse(dateLayout, joinRaw)
		if err != nil {
			return nil, fmt.Errorf("employee %s: bad join_date %q: %w", id, joinRaw, err)
		}
		if relieving.Valid && relieving.String != "" {
			d, err := time.Parse(dateLayout, relieving.String)
			if err != nil {
				return nil, fmt.Errorf("employee %s: bad relieving_date %q: %w", id, relieving.String, err)
			}
			e.RelievingDate = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntitlementRules returns every uniform entitlement rule.
func (s *Store) EntitlementRules(ctx context.Context) ([]kpi.EntitlementRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT department, item_name, gender, base_location, frequency, quantity
		FROM entitlement_rules`)
	if err != nil {
		return nil, fmt.Errorf("query entitlement rules: %w", err)
	}
	defer rows.Close()

	var out []kpi.EntitlementRule
	for rows.Next() {
		var (
			r      kpi.EntitlementRule
			gender string
		)
		if err := rows.Scan(&r.Department, &r.ItemName, &gender, &r.LocationScope, &r.FrequencyMonths, &r.QuantityPerIssue); err != nil {
			return nil, fmt.Errorf("scan entitlement rule: %w", err)
		}
		r.GenderScope = kpi.ParseGenderScope(gender)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// SEEDING - write side, used by demo scenarios and imports only
// =============================================================================

// SaveEmployee inserts or replaces one roster row.
func (s *Store) SaveEmployee(ctx context.Context, e kpi.Employee) error {
	var relieving any
	if e.RelievingDate != nil {
		relieving = e.RelievingDate.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees (id, status, department, gender, location, join_date, relieving_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), e.Status, e.Department, e.Gender, e.Location,
		e.JoinDate.Format(dateLayout), relieving)
	return err
}

// SaveRule inserts one entitlement rule.
func (s *Store) SaveRule(ctx context.Context, r kpi.EntitlementRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entitlement_rules (department, item_name, gender, base_location, frequency, quantity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Department, r.ItemName, string(r.GenderScope), r.LocationScope,
		r.FrequencyMonths, r.QuantityPerIssue)
	return err
}

// Reset clears both tables.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"employees", "entitlement_rules"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
