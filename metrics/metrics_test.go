package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	case out.Histogram != nil:
		return float64(out.GetHistogram().GetSampleCount())
	}
	return 0
}

func TestRecorders(t *testing.T) {
	r := New()
	r.Decision("select_training", "decide_normal")
	r.Decision("select_training", "decide_normal")
	r.EventResolved("rule", "train_event_scenario")
	r.CacheRebuilt()
	r.Stopped("low_mood")
	r.PerceptionFailed("energy")
	r.Tick("decide_normal", 150*time.Millisecond)
	r.SetRunning(true)

	if got := value(t, r.Decisions.WithLabelValues("select_training", "decide_normal")); got != 2 {
		t.Errorf("expected 2 decisions, got %v", got)
	}
	if got := value(t, r.CacheRebuilds); got != 1 {
		t.Errorf("expected 1 rebuild, got %v", got)
	}
	if got := value(t, r.Running); got != 1 {
		t.Errorf("expected running gauge 1, got %v", got)
	}
	tick, ok := r.TickDuration.WithLabelValues("decide_normal").(prometheus.Metric)
	if !ok {
		t.Fatal("histogram observer is not a metric")
	}
	if got := value(t, tick); got != 1 {
		t.Errorf("expected 1 tick observation, got %v", got)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.Decision("a", "b")
	r.Tick("a", time.Second)
	r.EventResolved("a", "b")
	r.CacheRebuilt()
	r.Stopped("a")
	r.PerceptionFailed("a")
	r.SetRunning(true)
}

func TestHandlerServesMetrics(t *testing.T) {
	r := New()
	r.Stopped("career_complete")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `trackside_stops_total{reason="career_complete"} 1`) {
		t.Errorf("stop counter missing from scrape output:\n%s", body)
	}
}
