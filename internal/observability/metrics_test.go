package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/xp/balance", "200", time.Millisecond)
	m.ObserveLedgerEntry("EARN", "habit", 10)
	m.IncRateLimitDenied("trust_per_challenge")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
}

func TestWritePrometheusIncludesDomainSeries(t *testing.T) {
	m := newMetrics()
	m.ObserveLedgerEntry("EARN", "trust_challenge", 20)
	m.ObserveLedgerEntry("EARN", "trust_challenge", 5)
	m.ObserveLedgerEntry("SPEND", "reward", -30)
	m.IncRateLimitDenied("habit_daily_xp")
	m.ObserveAggregateOperation("verify_submission", "ok", 3*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`dq_xp_awarded_total{source="trust_challenge"} 25`,
		`dq_xp_ledger_entries_total{direction="SPEND",source="reward"} 1`,
		`dq_rate_limit_denied_total{policy="habit_daily_xp"} 1`,
		`dq_aggregate_operation_duration_seconds_count{operation="verify_submission",status="ok"} 1`,
		`# TYPE dq_api_inflight_requests gauge`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"op"}, []float64{1, 2})
	h.Observe(0.5, "a")
	h.Observe(1.5, "a")
	h.Observe(3, "a")
	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`h_bucket{op="a",le="1"} 1`,
		`h_bucket{op="a",le="2"} 2`,
		`h_bucket{op="a",le="+Inf"} 3`,
		`h_count{op="a"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{`a"b`})
	if got != `{route="a\"b"}` {
		t.Fatalf("unexpected label string %s", got)
	}
}
