package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPassCountsByStrategyAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPass("catch_up", OutcomeSuccess, time.Second)
	c.RecordPass("catch_up", OutcomeSuccess, 2*time.Second)
	c.RecordPass("refresh", OutcomeFailure, time.Second)

	if got := testutil.ToFloat64(c.passes.WithLabelValues("catch_up", OutcomeSuccess)); got != 2 {
		t.Errorf("catch_up success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.passes.WithLabelValues("refresh", OutcomeFailure)); got != 1 {
		t.Errorf("refresh failure = %v, want 1", got)
	}
}

func TestRecordChaptersAddedIgnoresZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordChaptersAdded("backfill", 0)
	c.RecordChaptersAdded("backfill", 3)

	if got := testutil.ToFloat64(c.chaptersAdded.WithLabelValues("backfill")); got != 3 {
		t.Errorf("chapters added = %v, want 3", got)
	}
}

func TestRecordDeliveryResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDelivery(true)
	c.RecordDelivery(false)
	c.RecordDelivery(true)

	if got := testutil.ToFloat64(c.deliveries.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok deliveries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.deliveries.WithLabelValues("error")); got != 1 {
		t.Errorf("failed deliveries = %v, want 1", got)
	}
}

func TestSetupMetricsRouteServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordFeedPoll(true)

	srv := httptest.NewServer(SetupMetricsRoute(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "waeleaks_feed_polls_total") {
		t.Fatalf("metrics output missing feed poll counter:\n%s", body)
	}
}

func TestEnsureReturnsNop(t *testing.T) {
	if _, ok := Ensure(nil).(Nop); !ok {
		t.Fatalf("expected Nop recorder")
	}
}
