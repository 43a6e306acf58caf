package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSweepMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSweepMetrics(reg)
	job := "expired-carts"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.AddSwept(job, 3)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "sweep_discarded_total", "job", job); err != nil {
		t.Fatalf("fetch discarded: %v", err)
	} else if got != 3 {
		t.Fatalf("expected discarded=3, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sweep_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "sweep_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestSweepMetricsIgnoresNonPositiveCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSweepMetrics(reg)
	metrics.AddSwept("expired-carts", 0)
	metrics.AddSwept("expired-carts", -4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if mf := findMetricFamily(mfs, "sweep_discarded_total"); mf != nil && len(mf.GetMetric()) > 0 {
		t.Fatalf("expected no discarded samples, got %d", len(mf.GetMetric()))
	}
}

func TestSweepMetricsNilReceiverIsNoop(t *testing.T) {
	var metrics *SweepMetrics
	metrics.ObserveDuration("expired-carts", time.Second)
	metrics.AddSwept("expired-carts", 1)
	metrics.IncFailure("expired-carts")

	unregistered := NewSweepMetrics(nil)
	unregistered.ObserveDuration("expired-carts", time.Second)
	unregistered.AddSwept("expired-carts", 1)
	unregistered.IncFailure("expired-carts")
}

func TestUpstreamMetricsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewUpstreamMetrics(reg)
	metrics.IncRequest("list_orders", "success")
	metrics.IncRequest("list_orders", "success")
	metrics.IncRequest("list_orders", "error")
	metrics.IncRetry("list_orders")
	metrics.IncRequest("", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "upstream_requests_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch success requests: %v", err)
	} else if got != 2 {
		t.Fatalf("expected success=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "upstream_requests_total", "outcome", "error"); err != nil {
		t.Fatalf("fetch error requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected error=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "upstream_requests_total", "operation", "unknown"); err != nil {
		t.Fatalf("fetch unknown operation: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "upstream_retries_total", "operation", "list_orders"); err != nil {
		t.Fatalf("fetch retries: %v", err)
	} else if got != 1 {
		t.Fatalf("expected retries=1, got %f", got)
	}
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
