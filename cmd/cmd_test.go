package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeDaemon answers JSON-RPC over HTTP with canned results and records
// the params of every call, keyed by method.
type fakeDaemon struct {
	t       *testing.T
	results map[string]any
	params  map[string]json.RawMessage
}

func (f *fakeDaemon) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64           `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Fatalf("decode request: %v", err)
	}
	f.params[req.Method] = req.Params

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  f.results[req.Method],
	})
}

func startFake(t *testing.T, results map[string]any) (*fakeDaemon, string) {
	t.Helper()
	f := &fakeDaemon{t: t, results: results, params: make(map[string]json.RawMessage)}
	ts := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(ts.Close)
	return f, strings.TrimPrefix(ts.URL, "http://")
}

func TestExecute_Limit(t *testing.T) {
	f, addr := startFake(t, map[string]any{
		"limit.get": map[string]any{"manualLimit": 512000, "effectiveLimit": 512000},
	})

	if err := Execute([]string{"bwsched", "--addr", addr, "limit"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, ok := f.params["limit.get"]; !ok {
		t.Error("limit.get was not called")
	}
}

func TestExecute_LimitSetParsesUnits(t *testing.T) {
	f, addr := startFake(t, map[string]any{
		"limit.set": map[string]any{"manualLimit": 524288, "effectiveLimit": 524288},
	})

	if err := Execute([]string{"bwsched", "--addr", addr, "limit", "512KB"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var p struct {
		Limit int64 `json:"limit"`
	}
	if err := json.Unmarshal(f.params["limit.set"], &p); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if p.Limit != 512*1024 {
		t.Errorf("limit.set limit = %d, want %d", p.Limit, 512*1024)
	}
}

func TestExecute_ScheduleSetMergesOverCurrent(t *testing.T) {
	cur := map[string]any{
		"enabled":  false,
		"days":     "All",
		"start":    "00:00",
		"end":      "06:00",
		"altLimit": 500000,
	}
	f, addr := startFake(t, map[string]any{
		"schedule.get": cur,
		"schedule.set": cur,
	})

	schedDays, schedStart, schedEnd, schedLimit = "", "", "", ""
	schedEnable, schedDisable = false, false
	t.Cleanup(func() {
		schedDays, schedStart, schedEnd, schedLimit = "", "", "", ""
		schedEnable, schedDisable = false, false
	})

	err := Execute([]string{"bwsched", "--addr", addr, "schedule", "set", "--start", "22:00", "--enable"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var p struct {
		Enabled  bool   `json:"enabled"`
		Days     string `json:"days"`
		Start    string `json:"start"`
		End      string `json:"end"`
		AltLimit int64  `json:"altLimit"`
	}
	if err := json.Unmarshal(f.params["schedule.set"], &p); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if !p.Enabled || p.Start != "22:00" {
		t.Errorf("overridden fields not sent: %+v", p)
	}
	if p.Days != "All" || p.End != "06:00" || p.AltLimit != 500000 {
		t.Errorf("untouched fields not preserved: %+v", p)
	}
}
