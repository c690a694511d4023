package metrics

import (
    "errors"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
    r, err := New()
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    r.Workflow(WorkflowClose, "ok", time.Now())
    r.Workflow(WorkflowClose, "ok", time.Now())
    r.Workflow(WorkflowWalkin, "invalid", time.Now())
    r.PartRows("ticket", 3)
    r.PartRows("ticket", 0)
    r.Event("ticket.closed", nil)
    r.Event("ticket.closed", errors.New("down"))
    r.CatalogFallback()

    if got := testutil.ToFloat64(r.workflows.WithLabelValues(WorkflowClose, "ok")); got != 2 {
        t.Errorf("close ok = %v, want 2", got)
    }
    if got := testutil.ToFloat64(r.partRows.WithLabelValues("ticket")); got != 3 {
        t.Errorf("ticket part rows = %v, want 3", got)
    }
    if got := testutil.ToFloat64(r.events.WithLabelValues("ticket.closed", "error")); got != 1 {
        t.Errorf("event errors = %v, want 1", got)
    }
    if got := testutil.ToFloat64(r.partsFallback); got != 1 {
        t.Errorf("fallbacks = %v, want 1", got)
    }
}

func TestHandlerExposesMetrics(t *testing.T) {
    r, err := New()
    if err != nil {
        t.Fatal(err)
    }
    r.Workflow(WorkflowIntake, "ok", time.Now())
    rec := httptest.NewRecorder()
    r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
    if rec.Code != 200 {
        t.Fatalf("status = %d", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), `portal_workflow_total{outcome="ok",workflow="intake"} 1`) {
        t.Fatalf("missing counter in:\n%s", rec.Body.String())
    }
}

func TestNilRecorderIsNoop(t *testing.T) {
    var r *Recorder
    r.Workflow(WorkflowClose, "ok", time.Now())
    r.PartRows("walkin", 1)
    r.Event("x", nil)
    r.CatalogFallback()
    rec := httptest.NewRecorder()
    r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
    if rec.Code != 404 {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
}
