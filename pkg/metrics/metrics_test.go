package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAction("counter", "increment", nil, time.Millisecond)
	m.SetStoresActive(3)
	m.CacheError("get")
	m.SetNotificationsActive(1)
	m.InspectRequest("/stores", 200)
	if m.Gatherer() != nil {
		t.Error("nil metrics should have no gatherer")
	}
}

func TestObserveAction(t *testing.T) {
	m := New()

	m.ObserveAction("counter", "increment", nil, time.Millisecond)
	m.ObserveAction("counter", "increment", nil, time.Millisecond)
	m.ObserveAction("auth", "login", errors.New("boom"), time.Second)

	if got := testutil.ToFloat64(m.actionsTotal.WithLabelValues("counter", "increment", "ok")); got != 2 {
		t.Errorf("expected 2 ok increments, got %v", got)
	}
	if got := testutil.ToFloat64(m.actionsTotal.WithLabelValues("auth", "login", "error")); got != 1 {
		t.Errorf("expected 1 failed login, got %v", got)
	}
}

func TestGauges(t *testing.T) {
	m := New()
	m.SetStoresActive(4)
	m.SetNotificationsActive(2)
	m.CacheError("set")

	if got := testutil.ToFloat64(m.storesActive); got != 4 {
		t.Errorf("stores_active = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.notificationsActive); got != 2 {
		t.Errorf("notifications_active = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheErrors.WithLabelValues("set")); got != 1 {
		t.Errorf("cache_errors_total{op=set} = %v, want 1", got)
	}
}

func TestCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("custom"))
	m.SetStoresActive(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "custom_stores_active" {
			found = true
		}
	}
	if !found {
		t.Error("expected custom_stores_active to be registered")
	}
	if m.Gatherer() == nil {
		t.Error("registry should be usable as gatherer")
	}
}

func TestStatusText(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 429: "4xx", 503: "5xx"}
	for code, want := range cases {
		if got := statusText(code); got != want {
			t.Errorf("statusText(%d) = %q, want %q", code, got, want)
		}
	}
}
