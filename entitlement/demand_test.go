package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/uniform-kpi/entitlement"
	"github.com/warp/uniform-kpi/kpi"
	"github.com/warp/uniform-kpi/kpi/store"
)

// =============================================================================
// SETUP
// =============================================================================

// seedDemand loads one employee whose issuance cycle is known by hand:
// joined 2025-01-15 with a 6-month tunic rule, so issuances land on
// 2025-01-15, 2025-07-15, 2026-01-15, 2026-07-15, ...
// Only dates strictly after the 2025-08-31 cutoff project.
func seedDemand(src *store.Memory) {
	src.AddEmployees(
		kpi.Employee{ID: "e1", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: d(2025, time.January, 15)},
	)
	src.AddRules(
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Tunic", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
	)
}

func demandRows(t *testing.T, res *kpi.Result) []entitlement.DemandRow {
	t.Helper()
	require.True(t, res.Success, res.Message)
	rows, ok := res.Data.([]entitlement.DemandRow)
	require.True(t, ok)
	return rows
}

// =============================================================================
// WINDOW RESOLUTION
// =============================================================================

func TestSKUDemand_RequiresTimeSpec(t *testing.T) {
	_, disp, src := newTestService(t)
	seedDemand(src)

	res := evaluate(t, disp, kpi.Request{Metric: kpi.MetricSKUDemand})
	assert.False(t, res.Success)
	assert.Equal(t, "Please provide either 'time_range' (from/to) or 'months'", res.Message)
}

func TestSKUDemand_RejectsPastWindow(t *testing.T) {
	// A range ending on or before the cutoff month has no future to project.

	_, disp, src := newTestService(t)
	seedDemand(src)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-01", To: "2025-08"},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Please select dates after Aug 2025 for future demand", res.Message)
}

func TestSKUDemand_RejectsBadDates(t *testing.T) {
	_, disp, src := newTestService(t)
	seedDemand(src)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "Jan 2026", To: "2026-03"},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid date format. Use YYYY-MM", res.Message)
}

func TestSKUDemand_MonthsBeatTimeRange(t *testing.T) {
	// GIVEN: both an explicit month set and a range
	// THEN: the months win and the ignored range is not echoed back

	_, disp, src := newTestService(t)
	seedDemand(src)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		Filters:   kpi.Filters{Months: []string{"2026-01"}},
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-12"},
	})
	require.True(t, res.Success)
	assert.Nil(t, res.TimeRange)
	assert.Equal(t, []string{"2026-01"}, res.Months)

	rows := demandRows(t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].TotalOccurrences, "only the 2026-01-15 issuance is in the month set")
}

// =============================================================================
// OCCURRENCE COUNTING
// =============================================================================

func TestSKUDemand_SingleEmployeeCycle(t *testing.T) {
	// Window 2025-09..2026-03 holds exactly one issuance: 2026-01-15.
	// The 2025-07-15 one is before the cutoff and does not count.

	_, disp, src := newTestService(t)
	seedDemand(src)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-03"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Inflight Services", row.Department)
	assert.Equal(t, "Tunic", row.ItemName)
	assert.Equal(t, 6, row.FrequencyMonths)
	assert.Equal(t, "Female", row.GenderScope)
	assert.Equal(t, 1, row.UniqueEmployees)
	assert.Equal(t, 1, row.TotalOccurrences)
	assert.Equal(t, 2, row.TotalQuantityNeeded)
}

func TestSKUDemand_WindowAdditivity(t *testing.T) {
	// Splitting a window at a month boundary must preserve the occurrence
	// total: counts per sub-window sum to the count of the union.

	_, disp, src := newTestService(t)
	seedDemand(src)

	full := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	first := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-02"},
	})
	second := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2026-03", To: "2026-08"},
	})

	total := demandRows(t, full)[0].TotalOccurrences
	a := demandRows(t, first)[0].TotalOccurrences
	b := demandRows(t, second)[0].TotalOccurrences

	assert.Equal(t, 2, total, "2026-01-15 and 2026-07-15")
	assert.Equal(t, total, a+b)
}

func TestSKUDemand_CutoffBoundaryStrict(t *testing.T) {
	// An issuance exactly on the cutoff day does not project; one day later
	// does.

	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "on", Status: "Active", Department: "Cargo", Gender: "Male", Location: "DEL", JoinDate: d(2025, time.August, 31)},
		kpi.Employee{ID: "after", Status: "Active", Department: "Cargo", Gender: "Male", Location: "DEL", JoinDate: d(2025, time.September, 1)},
	)
	src.AddRules(
		// Yearly: "on" recurs 2026-08-31 (in window), "after" 2026-09-01 (out).
		kpi.EntitlementRule{Department: "Cargo", ItemName: "Vest", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 1)

	// "on": join date 2025-08-31 itself is not after the cutoff; next cycle
	// 2026-08-31 counts. "after": join 2025-09-01 counts, next cycle is past
	// the window. Two occurrences across two employees.
	assert.Equal(t, 2, rows[0].UniqueEmployees)
	assert.Equal(t, 2, rows[0].TotalOccurrences)
}

func TestSKUDemand_OneTimeItemsExcluded(t *testing.T) {
	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "e1", Status: "Active", Department: "Engineering", Gender: "Male", Location: "DEL", JoinDate: d(2025, time.October, 1)},
	)
	src.AddRules(
		kpi.EntitlementRule{Department: "Engineering", ItemName: "Name Badge", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 0, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	assert.Empty(t, demandRows(t, res), "one-time rules never project recurring demand")
}

func TestSKUDemand_InactiveEmployeesExcluded(t *testing.T) {
	_, disp, src := newTestService(t)
	seedDemand(src)
	src.AddEmployees(
		kpi.Employee{ID: "gone", Status: "Inactive", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: d(2025, time.January, 15)},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-03"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].UniqueEmployees)
}

func TestSKUDemand_RuleScopingAtTheJoin(t *testing.T) {
	// Gender- and location-scoped rules only cover matching employees.

	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "f-del", Status: "Active", Department: "Engineering", Gender: "Female", Location: "DEL", JoinDate: d(2025, time.September, 10)},
		kpi.Employee{ID: "m-del", Status: "Active", Department: "Engineering", Gender: "Male", Location: "DEL", JoinDate: d(2025, time.September, 10)},
		kpi.Employee{ID: "m-bom", Status: "Active", Department: "Engineering", Gender: "Male", Location: "BOM", JoinDate: d(2025, time.September, 10)},
	)
	src.AddRules(
		kpi.EntitlementRule{Department: "Engineering", ItemName: "Safety Shoes", GenderScope: kpi.ScopeMale, LocationScope: "DEL", FrequencyMonths: 12, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].UniqueEmployees, "only the male DEL employee is covered")
}

func TestSKUDemand_LongFrequencyNoFixedHorizon(t *testing.T) {
	// A 48-month cycle several years out must still be found.

	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "e1", Status: "Active", Department: "Cargo", Gender: "Male", Location: "DEL", JoinDate: d(2018, time.March, 20)},
	)
	src.AddRules(
		// Issuances: 2018-03, 2022-03, 2026-03, 2030-03.
		kpi.EntitlementRule{Department: "Cargo", ItemName: "Parka", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 48, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2030-01", To: "2030-06"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].TotalOccurrences, "the 2030-03-20 issuance")
}

// =============================================================================
// AGGREGATION AND SUMMARY
// =============================================================================

func TestSKUDemand_SummaryPartition(t *testing.T) {
	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "e1", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: d(2025, time.September, 1)},
		kpi.Employee{ID: "e2", Status: "Active", Department: "Inflight Services", Gender: "Male", Location: "DEL", JoinDate: d(2025, time.September, 1)},
	)
	src.AddRules(
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Tunic", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Wings Pin", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 2)

	summary, ok := res.Summary.(entitlement.DemandSummary)
	require.True(t, ok)
	assert.Equal(t, 2, summary.TotalSKUs)
	assert.Equal(t, 1, summary.CommonSKUs, "Wings Pin is gender-common")
	assert.Equal(t, 1, summary.DepartmentSpecificSKUs, "Tunic is female-specific")

	// Tunic: e1, issuances 2025-09-01 and 2026-03-01, qty 2 each = 8? No:
	// join 2025-09-01 counts (after cutoff), then 2026-03-01 -> 2 occurrences x2 = 4.
	// Wings Pin: both employees at 2025-09-01, next cycle 2026-09 out of
	// window -> 2 occurrences x1 = 2. Total 6 over 12 months.
	assert.Equal(t, 6, summary.TotalQuantity)
	assert.Equal(t, "0.5", summary.AvgQuantityPerMonth.String())

	// Rows come back quantity-descending.
	assert.GreaterOrEqual(t, rows[0].TotalQuantityNeeded, rows[1].TotalQuantityNeeded)
}

func TestSKUDemand_SKUFilter(t *testing.T) {
	_, disp, src := newTestService(t)
	seedDemand(src)
	src.AddRules(
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Wings Pin", GenderScope: kpi.ScopeBoth, LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricSKUDemand,
		Filters:   kpi.Filters{SKU: "tunic"},
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	rows := demandRows(t, res)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tunic", rows[0].ItemName)
}

// =============================================================================
// EMPLOYEES WITH DEMAND
// =============================================================================

func TestEmployeesWithDemand(t *testing.T) {
	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "f1", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: d(2025, time.January, 15)},
		kpi.Employee{ID: "f2", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "BOM", JoinDate: d(2025, time.October, 1)},
		kpi.Employee{ID: "m1", Status: "Active", Department: "Inflight Services", Gender: "Male", Location: "DEL", JoinDate: d(2023, time.April, 1)},
		// Covered by no recurring rule in the window.
		kpi.Employee{ID: "c1", Status: "Active", Department: "Finance", Gender: "Male", Location: "GGN", JoinDate: d(2024, time.January, 1)},
	)
	src.AddRules(
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Tunic", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Trousers", GenderScope: kpi.ScopeMale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricEmployeesWithDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	require.True(t, res.Success, res.Message)

	rows, ok := res.Data.([]entitlement.EmployeesWithDemandRow)
	require.True(t, ok)
	assert.Equal(t, []entitlement.EmployeesWithDemandRow{
		{Gender: "Female", Value: 2},
		{Gender: "Male", Value: 1},
		{Gender: "TOTAL", Value: 3},
	}, rows)
}

func TestEmployeesWithDemand_RequiresRange(t *testing.T) {
	_, disp, src := newTestService(t)
	seedDemand(src)

	res := evaluate(t, disp, kpi.Request{Metric: kpi.MetricEmployeesWithDemand})
	assert.False(t, res.Success)
	assert.Equal(t, "Please add a date range (from/to)", res.Message)
}

func TestEmployeesWithDemand_DedupAcrossRules(t *testing.T) {
	// An employee covered by two rules still counts once.

	_, disp, src := newTestService(t)
	src.AddEmployees(
		kpi.Employee{ID: "e1", Status: "Active", Department: "Inflight Services", Gender: "Female", Location: "DEL", JoinDate: d(2025, time.September, 1)},
	)
	src.AddRules(
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Tunic", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 2},
		kpi.EntitlementRule{Department: "Inflight", ItemName: "Scarf", GenderScope: kpi.ScopeFemale, LocationScope: "ALL", FrequencyMonths: 6, QuantityPerIssue: 1},
	)

	res := evaluate(t, disp, kpi.Request{
		Metric:    kpi.MetricEmployeesWithDemand,
		TimeRange: &kpi.TimeRange{From: "2025-09", To: "2026-08"},
	})
	rows := res.Data.([]entitlement.EmployeesWithDemandRow)
	assert.Equal(t, []entitlement.EmployeesWithDemandRow{
		{Gender: "Female", Value: 1},
		{Gender: "TOTAL", Value: 1},
	}, rows)
}
