package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/smart-stroller/internal/logic"
	"github.com/sweeney/smart-stroller/internal/metrics"
	"github.com/sweeney/smart-stroller/internal/status"
)

func newTestServer(t *testing.T, m *metrics.Metrics) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PeriodMs:    500,
		HeartbeatMs: 60000,
		Collector:   "http://collector.local/items",
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		Chip:        "gpiochip0",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, m)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(logic.State{
		Snapshot:  logic.Snapshot{LeftTouch: true, LeftTurn: true},
		Actuators: logic.Actuators{Brake: true, LeftLED: true},
	}, 3, logic.EventCounts{logic.LabelBrake: 1, logic.LabelLeftLED: 2})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if !sj.Status.Inputs.LeftTouch || !sj.Status.Inputs.LeftTurn {
		t.Errorf("inputs: got %+v", sj.Status.Inputs)
	}
	if !sj.Status.Outputs.Brake || !sj.Status.Outputs.LeftLED || sj.Status.Outputs.RightLED {
		t.Errorf("outputs: got %+v", sj.Status.Outputs)
	}
	if sj.Status.Mode != "LEFT_ONLY" {
		t.Errorf("mode: got %q, want LEFT_ONLY", sj.Status.Mode)
	}
	if !sj.Status.Running || sj.Status.Ticks != 3 {
		t.Errorf("running/ticks: got %v/%d", sj.Status.Running, sj.Status.Ticks)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts["left"] != 2 || sj.Status.Counts["brake"] != 1 {
		t.Errorf("counts: got %v", sj.Status.Counts)
	}
	if _, ok := sj.Status.Counts["right_turn_sensor"]; !ok {
		t.Error("expected every label in counts")
	}
	if sj.Status.Config.PeriodMs != 500 {
		t.Errorf("Config.PeriodMs: got %d, want 500", sj.Status.Config.PeriodMs)
	}
	if sj.Status.Telemetry.Collector != "http://collector.local/items" {
		t.Errorf("Telemetry.Collector: got %q", sj.Status.Telemetry.Collector)
	}
}

func TestJSONBeforeFirstTick(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	sj := getJSON(t, ts.URL+"/index.json")

	if sj.Status.Running {
		t.Error("expected Running=false before first tick")
	}
	if sj.Status.Outputs.Brake {
		t.Error("expected brake applied (false) before first tick")
	}
	if sj.Status.Mode != "OFF" {
		t.Errorf("mode: got %q, want OFF", sj.Status.Mode)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestJSONFaultAndFailures(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.AddTelemetryFailure()
	tr.AddTelemetryFailure()
	tr.SetFault(errors.New("hardware fault: read left_touch: EIO"))

	sj := getJSON(t, ts.URL+"/index.json")

	if sj.Status.Telemetry.Failures != 2 {
		t.Errorf("failures: got %d, want 2", sj.Status.Telemetry.Failures)
	}
	if !strings.Contains(sj.Status.Fault, "left_touch") {
		t.Errorf("fault: got %q", sj.Status.Fault)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(logic.State{
		Snapshot:  logic.Snapshot{RightTouch: true, LeftTurn: true, RightTurn: true},
		Actuators: logic.Actuators{Brake: true, LeftLED: true, RightLED: true},
	}, 1, logic.EventCounts{logic.LabelRightLED: 1})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"RELEASED", "BRAKE_BOTH", "right_touch_sensor", "gpiochip0"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLShowsFault(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.SetFault(errors.New("write solenoid: EIO"))

	_, body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "FAULT: write solenoid: EIO") {
		t.Error("expected fault banner")
	}
	if !strings.Contains(body, "APPLIED") {
		t.Error("expected brake APPLIED")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	code, _ := getBody(t, ts.URL+"/index.html")
	if code != 200 {
		t.Errorf("status: got %d, want 200", code)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	code, _ := getBody(t, ts.URL+"/nonexistent")
	if code != 404 {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveTick(time.Millisecond)
	m.ObserveChange("brake", true)
	ts, _ := newTestServer(t, m)

	code, body := getBody(t, ts.URL+"/metrics")
	if code != 200 {
		t.Fatalf("status: got %d, want 200", code)
	}
	for _, want := range []string{
		"stroller_ticks_total 1",
		`stroller_signal_changes_total{signal="brake",value="true"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	code, _ := getBody(t, ts.URL+"/metrics")
	if code != 404 {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, nil)

	sj1 := getJSON(t, ts.URL+"/index.json")
	if sj1.Status.Running {
		t.Error("expected Running=false initially")
	}

	tr.Update(logic.State{
		Snapshot:  logic.Snapshot{RightTurn: true},
		Actuators: logic.Actuators{RightLED: true},
	}, 1, logic.EventCounts{logic.LabelRightTurn: 1, logic.LabelRightLED: 1})
	tr.SetMQTTConnected(true)

	sj2 := getJSON(t, ts.URL+"/index.json")
	if !sj2.Status.Running {
		t.Error("expected Running=true after update")
	}
	if sj2.Status.Mode != "RIGHT_ONLY" {
		t.Errorf("mode: got %q, want RIGHT_ONLY", sj2.Status.Mode)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
