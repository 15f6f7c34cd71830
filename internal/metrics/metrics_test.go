package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/panel-router/internal/dispatch"
	"github.com/sweeney/panel-router/internal/router"
	"github.com/sweeney/panel-router/internal/topology"
)

func TestObserverCounters(t *testing.T) {
	m := New()

	m.EdgeReceived(topology.GPIO(25), true, true)
	m.EdgeReceived(topology.Virtual(1, 3), false, true)
	m.EdgeReceived(topology.Virtual(1, 5), false, false)

	m.ActionFired(router.Event{
		Input:   topology.Key{Class: topology.ClassRotary, Side: topology.SideLeft},
		Trigger: router.TriggerLeft,
		Results: []dispatch.Result{
			{Command: "a", Duration: time.Millisecond},
			{Command: "b", Err: dispatch.ErrNotAcknowledged, Duration: 2 * time.Second},
		},
	})

	m.ExpanderRead(1, 0xFE, nil)
	m.ExpanderRead(1, 0, errors.New("nack"))

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"gpio known", testutil.ToFloat64(m.Edges.WithLabelValues("gpio", "true")), 1},
		{"virtual known", testutil.ToFloat64(m.Edges.WithLabelValues("virtual", "true")), 1},
		{"virtual unknown", testutil.ToFloat64(m.Edges.WithLabelValues("virtual", "false")), 1},
		{"rotary left", testutil.ToFloat64(m.Actions.WithLabelValues("rotary", "LEFT")), 1},
		{"commands ok", testutil.ToFloat64(m.Commands.WithLabelValues("ok")), 1},
		{"commands failed", testutil.ToFloat64(m.Commands.WithLabelValues("failed")), 1},
		{"reads ok", testutil.ToFloat64(m.ExpanderReads.WithLabelValues("1", "ok")), 1},
		{"reads error", testutil.ToFloat64(m.ExpanderReads.WithLabelValues("1", "error")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestActivatedGauge(t *testing.T) {
	m := New()
	if testutil.ToFloat64(m.Activated) != 0 {
		t.Error("expected gate closed initially")
	}
	m.SetActivated(true)
	if testutil.ToFloat64(m.Activated) != 1 {
		t.Error("expected gate open")
	}
	m.SetActivated(false)
	if testutil.ToFloat64(m.Activated) != 0 {
		t.Error("expected gate closed")
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.EdgeReceived(topology.GPIO(7), true, true)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `panel_router_input_edges_total{kind="gpio",known="true"} 1`) {
		t.Errorf("edge counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(string(body), "panel_router_activated 0") {
		t.Errorf("activated gauge missing from exposition:\n%s", body)
	}
}
