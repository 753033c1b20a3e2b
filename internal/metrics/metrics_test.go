package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheLookup("memory", true)
	m.CacheLookup("memory", false)
	m.CacheLookup("memory", false)
	m.Fetch("openmeteo", nil)
	m.Fetch("openmeteo", errors.New("boom"))
	m.StoreError("set")

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "miss")); got != 2 {
		t.Errorf("memory misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "hit")); got != 1 {
		t.Errorf("memory hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Fetches.WithLabelValues("openmeteo", "error")); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("set")); got != 1 {
		t.Errorf("store errors = %v, want 1", got)
	}
}
