package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/uniform-kpi/kpi"
	"github.com/warp/uniform-kpi/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_EmployeeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	relieved := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	in := []kpi.Employee{
		{
			ID:         "E001",
			Status:     "Active",
			Department: "Inflight Services",
			Gender:     "Female",
			Location:   "DEL",
			JoinDate:   time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            "E002",
			Status:        "Inactive",
			Department:    "AOCS",
			Gender:        "Male",
			Location:      "BOM",
			JoinDate:      time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC),
			RelievingDate: &relieved,
		},
	}
	for _, e := range in {
		require.NoError(t, store.SaveEmployee(ctx, e))
	}

	out, err := store.Employees(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[kpi.EmployeeID]kpi.Employee{}
	for _, e := range out {
		byID[e.ID] = e
	}

	e1 := byID["E001"]
	assert.Equal(t, "Inflight Services", e1.Department)
	assert.True(t, e1.JoinDate.Equal(in[0].JoinDate))
	assert.Nil(t, e1.RelievingDate)

	e2 := byID["E002"]
	require.NotNil(t, e2.RelievingDate)
	assert.True(t, e2.RelievingDate.Equal(relieved))
}

func TestStore_SaveEmployee_Replaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := kpi.Employee{
		ID: "E001", Status: "Active", Department: "Cargo", Gender: "Male",
		Location: "DEL", JoinDate: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveEmployee(ctx, e))

	e.Status = "Inactive"
	require.NoError(t, store.SaveEmployee(ctx, e))

	out, err := store.Employees(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1, "same id replaces, never duplicates")
	assert.Equal(t, "Inactive", out[0].Status)
}

func TestStore_RuleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := kpi.EntitlementRule{
		Department:       "Inflight",
		ItemName:         "Tunic",
		GenderScope:      kpi.ScopeFemale,
		LocationScope:    "ALL",
		FrequencyMonths:  6,
		QuantityPerIssue: 2,
	}
	require.NoError(t, store.SaveRule(ctx, in))

	out, err := store.EntitlementRules(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}

func TestStore_GenderScopeParsedOnScan(t *testing.T) {
	// The gender column arrives as free text from the source spreadsheets;
	// scanning normalizes it to a scope.
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRule(ctx, kpi.EntitlementRule{
		Department: "Cargo", ItemName: "Vest",
		GenderScope: "Common", LocationScope: "ALL",
		FrequencyMonths: 12, QuantityPerIssue: 1,
	}))

	out, err := store.EntitlementRules(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, kpi.ScopeBoth, out[0].GenderScope, "unknown scope widens to Both")
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, kpi.Employee{
		ID: "E001", Status: "Active", Department: "Cargo", Gender: "Male",
		Location: "DEL", JoinDate: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveRule(ctx, kpi.EntitlementRule{
		Department: "Cargo", ItemName: "Vest", GenderScope: kpi.ScopeBoth,
		LocationScope: "ALL", FrequencyMonths: 12, QuantityPerIssue: 1,
	}))

	require.NoError(t, store.Reset(ctx))

	employees, err := store.Employees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)

	rules, err := store.EntitlementRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestStore_EmptyDatabase(t *testing.T) {
	store := newTestStore(t)

	employees, err := store.Employees(context.Background())
	require.NoError(t, err)
	assert.Empty(t, employees)
}
