/*
matrix.go - Department x SKU coverage pivot

The coverage matrix answers "which departments receive which items" as a
0/1 indicator table: one row per distinct SKU, one column per canonical
department appearing in the entitlement data. The department set is
discovered at query time, never a fixed enum, and every department appears
in every row so chart renderers get a rectangular table.
*/
package entitlement

import (
	"context"
	"sort"
	"strings"

	"github.com/warp/uniform-kpi/kpi"
)

// MatrixRow is one SKU row of the coverage matrix. Departments maps every
// canonical department to 1 (department receives the SKU) or 0.
type MatrixRow struct {
	SKU         string         `json:"sku"`
	Departments map[string]int `json:"departments"`
}

// MatrixData carries the rows plus the ordered column set so clients need
// not rediscover it.
type MatrixData struct {
	Departments []string    `json:"departments"`
	Rows        []MatrixRow `json:"rows"`
}

func (s *Service) coverageMatrix(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	// Distinct canonical departments, dynamically from the rule set.
	deptSet := make(map[string]struct{})
	for _, r := range rules {
		deptSet[s.norm.Normalize(r.Department)] = struct{}{}
	}
	departments := make([]string, 0, len(deptSet))
	for d := range deptSet {
		departments = append(departments, d)
	}
	sort.Strings(departments)

	// Which departments carry which SKU.
	covered := make(map[string]map[string]bool) // sku display name -> dept -> covered
	display := make(map[string]string)          // sku key -> display name
	for _, r := range rules {
		key := skuKey(r.ItemName)
		if _, ok := display[key]; !ok {
			display[key] = strings.TrimSpace(r.ItemName)
			covered[display[key]] = make(map[string]bool)
		}
		covered[display[key]][s.norm.Normalize(r.Department)] = true
	}

	rows := make([]MatrixRow, 0, len(covered))
	for sku, depts := range covered {
		row := MatrixRow{SKU: sku, Departments: make(map[string]int, len(departments))}
		for _, d := range departments {
			if depts[d] {
				row.Departments[d] = 1
			} else {
				row.Departments[d] = 0
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })

	data := MatrixData{Departments: departments, Rows: rows}
	return kpi.OK(req, "Entitlement coverage matrix showing which SKUs apply to which departments", data), nil
}
