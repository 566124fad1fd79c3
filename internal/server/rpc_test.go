package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warpdl/bandwidth/internal/arbiter"
	"github.com/warpdl/bandwidth/internal/scheduler"
	"github.com/warpdl/bandwidth/pkg/logger"
	"github.com/warpdl/bandwidth/pkg/schedule"
)

type nullEngine struct{}

func (nullEngine) SetSpeedLimit(int64) {}

type nullStore struct{}

func (nullStore) SaveManualLimit(int64) error          { return nil }
func (nullStore) SaveLastCustom(int64) error           { return nil }
func (nullStore) SaveSchedule(schedule.Schedule) error { return nil }

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// newTestServer spins up the RPC surface over a live arbiter and scheduler.
func newTestServer(t *testing.T, secret string) (*httptest.Server, *arbiter.Arbiter) {
	t.Helper()
	proc := scheduler.New(logger.NewNopLogger())
	t.Cleanup(proc.Stop)

	sch, err := schedule.New(false, schedule.AllDays, schedule.Clock{Hour: 0}, schedule.Clock{Hour: 6}, 500_000)
	if err != nil {
		t.Fatalf("schedule.New: %v", err)
	}
	arb := arbiter.New(proc, nullEngine{}, nullStore{}, logger.NewNopLogger(), 1_000_000, 0, sch)
	t.Cleanup(arb.Close)

	rs := NewRPCServer(&RPCConfig{Secret: secret, Version: "test"}, arb, proc, logger.NewNopLogger())
	t.Cleanup(rs.Close)

	ts := httptest.NewServer(rs.Handler())
	t.Cleanup(ts.Close)
	return ts, arb
}

// call performs a JSON-RPC request against the test server.
func call(t *testing.T, ts *httptest.Server, secret, method string, params, result any) *rpcError {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/rpc", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if result != nil {
		if err := json.Unmarshal(rr.Result, result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
	}
	return nil
}

func TestRPC_GetVersion(t *testing.T) {
	ts, _ := newTestServer(t, "")
	var res VersionResult
	if rpcErr := call(t, ts, "", "system.getVersion", nil, &res); rpcErr != nil {
		t.Fatalf("rpc error: %+v", rpcErr)
	}
	if res.Version != "test" {
		t.Errorf("version = %q, want %q", res.Version, "test")
	}
}

func TestRPC_LimitGetSetToggle(t *testing.T) {
	ts, _ := newTestServer(t, "")

	var res LimitResult
	if rpcErr := call(t, ts, "", "limit.get", nil, &res); rpcErr != nil {
		t.Fatalf("limit.get: %+v", rpcErr)
	}
	if res.ManualLimit != 1_000_000 || res.EffectiveLimit != 1_000_000 {
		t.Errorf("initial limits = %+v", res)
	}

	if rpcErr := call(t, ts, "", "limit.set", SetLimitParams{Limit: 2_000_000}, &res); rpcErr != nil {
		t.Fatalf("limit.set: %+v", rpcErr)
	}
	if res.ManualLimit != 2_000_000 {
		t.Errorf("manual after set = %d", res.ManualLimit)
	}

	if rpcErr := call(t, ts, "", "limit.toggle", nil, &res); rpcErr != nil {
		t.Fatalf("limit.toggle: %+v", rpcErr)
	}
	if res.ManualLimit != 0 || res.LastCustom != 2_000_000 {
		t.Errorf("after toggle = %+v", res)
	}
}

func TestRPC_LimitSetNegativeRejected(t *testing.T) {
	ts, _ := newTestServer(t, "")
	rpcErr := call(t, ts, "", "limit.set", SetLimitParams{Limit: -5}, nil)
	if rpcErr == nil {
		t.Fatal("negative limit accepted")
	}
	if rpcErr.Code != int(codeInvalidParams) {
		t.Errorf("error code = %d, want %d", rpcErr.Code, codeInvalidParams)
	}
}

func TestRPC_ScheduleSetAndGet(t *testing.T) {
	ts, arb := newTestServer(t, "")

	var res ScheduleResult
	rpcErr := call(t, ts, "", "schedule.set", SetScheduleParams{
		Enabled:  true,
		Days:     "fri,sat",
		Start:    "18:00",
		End:      "12:00",
		AltLimit: 500_000,
	}, &res)
	if rpcErr != nil {
		t.Fatalf("schedule.set: %+v", rpcErr)
	}
	if !res.Enabled || res.Days != "Fri,Sat" || res.Start != "18:00" || res.End != "12:00" {
		t.Errorf("schedule.set result = %+v", res)
	}
	if res.NextTransition == "" {
		t.Error("enabled schedule must report the next transition")
	}
	if got := arb.Schedule().AltLimit; got != 500_000 {
		t.Errorf("arbiter alt limit = %d", got)
	}
}

func TestRPC_ScheduleSetValidation(t *testing.T) {
	ts, _ := newTestServer(t, "")

	tests := []struct {
		name     string
		params   SetScheduleParams
		wantCode int
	}{
		{
			name:     "bad days",
			params:   SetScheduleParams{Days: "xyz", Start: "08:00", End: "17:00", AltLimit: 500_000},
			wantCode: int(codeInvalidParams),
		},
		{
			name:     "bad start",
			params:   SetScheduleParams{Days: "all", Start: "25:00", End: "17:00", AltLimit: 500_000},
			wantCode: int(codeInvalidParams),
		},
		{
			name:     "alt below floor",
			params:   SetScheduleParams{Days: "all", Start: "08:00", End: "17:00", AltLimit: 100},
			wantCode: int(codeInvalidSchedule),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpcErr := call(t, ts, "", "schedule.set", tt.params, nil)
			if rpcErr == nil {
				t.Fatal("invalid schedule accepted")
			}
			if rpcErr.Code != tt.wantCode {
				t.Errorf("error code = %d, want %d", rpcErr.Code, tt.wantCode)
			}
		})
	}
}

func TestRPC_ScheduleToggle(t *testing.T) {
	ts, arb := newTestServer(t, "")

	var res ScheduleResult
	if rpcErr := call(t, ts, "", "schedule.toggle", nil, &res); rpcErr != nil {
		t.Fatalf("schedule.toggle: %+v", rpcErr)
	}
	if !res.Enabled || !arb.Schedule().Enabled {
		t.Error("toggle did not enable the schedule")
	}
}

func TestRPC_StatusGet(t *testing.T) {
	ts, _ := newTestServer(t, "")
	var res StatusResult
	if rpcErr := call(t, ts, "", "status.get", nil, &res); rpcErr != nil {
		t.Fatalf("status.get: %+v", rpcErr)
	}
	if res.Limit.ManualLimit != 1_000_000 {
		t.Errorf("status limit = %+v", res.Limit)
	}
	if res.Schedule.AltLimit != 500_000 {
		t.Errorf("status schedule = %+v", res.Schedule)
	}
}

func TestRPC_AuthRequired(t *testing.T) {
	ts, _ := newTestServer(t, "s3cret")

	// Without the token the request is rejected with a JSON-RPC error body.
	resp, err := http.Post(ts.URL+"/rpc", "application/json",
		bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1,"method":"limit.get"}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	// With the token the same call succeeds.
	var res LimitResult
	if rpcErr := call(t, ts, "s3cret", "limit.get", nil, &res); rpcErr != nil {
		t.Fatalf("authorized call failed: %+v", rpcErr)
	}
}
