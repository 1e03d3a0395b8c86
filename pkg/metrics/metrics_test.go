package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "badge-reconcile"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)
	metrics.IncSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", "result", "success"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", "result", "failure"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if mf := findMetricFamily(mfs, "cron_job_last_success_timestamp_seconds"); mf == nil || mf.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatal("expected last success timestamp to be set")
	}
	if mf := findMetricFamily(mfs, "cron_cycles_skipped_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("expected one skipped cycle")
	}

	if got, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCoreMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	core := NewCoreMetrics(reg)
	core.LedgerApplied("MISSION_POST", "insufficient_balance")
	core.LedgerApplied("MISSION_POST", "insufficient_balance")
	core.FavoriteToggled(true)
	core.BadgeGranted("TOP_RATED", "rule")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "ledger_apply_total", "result", "insufficient_balance"); err != nil {
		t.Fatalf("fetch ledger: %v", err)
	} else if got != 2 {
		t.Fatalf("expected ledger insufficient=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "favorites_toggled_total", "state", "active"); err != nil {
		t.Fatalf("fetch favorites: %v", err)
	} else if got != 1 {
		t.Fatalf("expected active toggles=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "badges_granted_total", "type", "TOP_RATED"); err != nil {
		t.Fatalf("fetch badges: %v", err)
	} else if got != 1 {
		t.Fatalf("expected granted=1, got %f", got)
	}
}

func TestHTTPMetricsObserveByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := NewHTTPMetrics(reg)
	httpMetrics.ObserveRequest("/api/v1/wallet", "GET", 200, 30*time.Millisecond)
	httpMetrics.ObserveRequest("", "GET", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/wallet"); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
	if _, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "unknown"); err != nil {
		t.Fatalf("expected unmatched routes under unknown: %v", err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var core *CoreMetrics
	core.LedgerApplied("PURCHASE", "ok")
	core.LedgerRetried()
	core.SequenceAllocated("ok")
	core.SequenceRetried()
	NewCoreMetrics(nil).FavoriteToggled(false)
	NewCronJobMetrics(nil).IncSuccess("job")
	NewCronJobMetrics(nil).IncSkipped()
	var httpMetrics *HTTPMetrics
	httpMetrics.ObserveRequest("/", "GET", 200, time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
