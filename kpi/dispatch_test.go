package kpi_test

import (
	"context"
	"strings"
	"testing"

	"github.com/warp/uniform-kpi/kpi"
)

func okSpec(name string, handler kpi.MetricFunc) kpi.MetricSpec {
	return kpi.MetricSpec{Name: name, Handler: handler}
}

func echoHandler(t *testing.T, captured *kpi.Request) kpi.MetricFunc {
	t.Helper()
	return func(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
		*captured = req
		return kpi.OK(req, "ok", kpi.CountRow{Value: 1}), nil
	}
}

func TestDispatcher_UnknownMetric(t *testing.T) {
	d := kpi.NewDispatcher()

	res, err := d.Evaluate(context.Background(), kpi.Request{Metric: "nonsense"})
	if err != nil {
		t.Fatalf("unknown metric should not be a Go error: %v", err)
	}
	if res.Success {
		t.Error("unknown metric should yield an unsuccessful result")
	}
	if !strings.Contains(res.Message, "nonsense") {
		t.Errorf("message should name the metric: %q", res.Message)
	}
}

func TestDispatcher_DefaultStatusInjection(t *testing.T) {
	d := kpi.NewDispatcher()
	var seen kpi.Request
	d.Register(kpi.MetricSpec{
		Name:     "with_default",
		Defaults: kpi.Defaults{Status: "Active"},
		Handler:  echoHandler(t, &seen),
	})

	// No caller status: the declared default applies.
	if _, err := d.Evaluate(context.Background(), kpi.Request{Metric: "with_default"}); err != nil {
		t.Fatal(err)
	}
	if seen.Filters.Status != "Active" {
		t.Errorf("default status not injected: %q", seen.Filters.Status)
	}

	// Explicit caller status wins.
	req := kpi.Request{Metric: "with_default", Filters: kpi.Filters{Status: "Inactive"}}
	if _, err := d.Evaluate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if seen.Filters.Status != "Inactive" {
		t.Errorf("explicit status overridden: %q", seen.Filters.Status)
	}

	// A placeholder status counts as absent.
	req = kpi.Request{Metric: "with_default", Filters: kpi.Filters{Status: "..."}}
	if _, err := d.Evaluate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if seen.Filters.Status != "Active" {
		t.Errorf("placeholder status should be sanitized before injection: %q", seen.Filters.Status)
	}
}

func TestDispatcher_SanitizesBeforeDispatch(t *testing.T) {
	d := kpi.NewDispatcher()
	var seen kpi.Request
	d.Register(okSpec("echo", echoHandler(t, &seen)))

	req := kpi.Request{
		Metric:  "echo",
		Filters: kpi.Filters{Department: " AOCS ", Gender: "..."},
	}
	if _, err := d.Evaluate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if seen.Filters.Department != "AOCS" || seen.Filters.Gender != "" {
		t.Errorf("filters not sanitized: %+v", seen.Filters)
	}
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	d := kpi.NewDispatcher()
	d.Register(okSpec("boom", func(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
		panic("handler bug")
	}))

	res, err := d.Evaluate(context.Background(), kpi.Request{Metric: "boom"})
	if err == nil {
		t.Fatal("panicking handler should surface as an error")
	}
	if res != nil {
		t.Error("no result should accompany a recovered fault")
	}
	if !strings.Contains(err.Error(), "internal fault") {
		t.Errorf("error should classify the fault: %v", err)
	}
}

func TestDispatcher_DuplicateRegistrationPanics(t *testing.T) {
	d := kpi.NewDispatcher()
	d.Register(okSpec("dup", func(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
		return kpi.OK(req, "ok", nil), nil
	}))

	defer func() {
		if recover() == nil {
			t.Error("registering the same name twice should panic")
		}
	}()
	d.Register(okSpec("dup", func(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
		return kpi.OK(req, "ok", nil), nil
	}))
}

func TestDispatcher_MetricsSorted(t *testing.T) {
	d := kpi.NewDispatcher()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		d.Register(okSpec(name, func(ctx context.Context, req kpi.Request) (*kpi.Result, error) {
			return kpi.OK(req, "ok", nil), nil
		}))
	}

	names := d.Metrics()
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Errorf("Metrics() = %v, want sorted", names)
	}
}
