package otel

import (
	"context"
	"sync"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu      sync.RWMutex
	counts  map[goAccount.MetricID]uint64
	dropped uint64
}

func (f *fakeSource) MetricsSnapshot() goAccount.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goAccount.MetricsSnapshot{Counters: make(map[goAccount.MetricID]uint64, len(f.counts))}
	for k, v := range f.counts {
		out.Counters[k] = v
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				return 0, false
			}
			return sum.DataPoints[0].Value, true
		}
	}
	return 0, false
}

func TestExporterCollectsCounters(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{counts: map[goAccount.MetricID]uint64{goAccount.MetricVerifySuccess: 3}, dropped: 1}

	exp, err := NewExporter(provider.Meter("goaccount-test"), src)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if v, ok := findSum(rm, "goaccount_verify_success_total"); !ok || v != 3 {
		t.Fatalf("verify_success = %d, %v; want 3", v, ok)
	}
	if v, ok := findSum(rm, "goaccount_audit_dropped_total"); !ok || v != 1 {
		t.Fatalf("audit_dropped = %d, %v; want 1", v, ok)
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader()
	if _, err := NewExporter(provider.Meter("goaccount-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporter(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollect(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{counts: map[goAccount.MetricID]uint64{goAccount.MetricLoginSuccess: 1}}

	exp, err := NewExporter(provider.Meter("goaccount-test"), src)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counts[goAccount.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
