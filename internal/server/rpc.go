// Package server exposes the bandwidth engine over JSON-RPC 2.0: an HTTP
// POST bridge for request/response methods and a WebSocket channel that
// additionally receives push notifications when the effective limit changes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/warpdl/bandwidth/internal/arbiter"
	"github.com/warpdl/bandwidth/internal/scheduler"
	"github.com/warpdl/bandwidth/pkg/logger"
	"github.com/warpdl/bandwidth/pkg/schedule"
)

// Custom JSON-RPC error codes for limit and schedule operations.
const (
	codeInvalidParams   = jrpc2.Code(-32602)
	codeInvalidSchedule = jrpc2.Code(-32001)
)

// EffectiveLimitChanged is the push notification method name sent to
// WebSocket clients whenever the effective limit changes.
const EffectiveLimitChanged = "limit.changed"

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret  string // Bearer token; empty means auth is not enforced (loopback only)
	Version string // Daemon version
}

// RPCServer manages the JSON-RPC bridge, method handlers and the WebSocket
// notification fan-out.
type RPCServer struct {
	bridge   jhttp.Bridge
	methods  handler.Map
	secret   string
	version  string
	arb      *arbiter.Arbiter
	proc     *scheduler.Process
	notifier *Notifier
	log      logger.Logger
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version string `json:"version"`
}

// LimitResult reports the current limit state.
type LimitResult struct {
	ManualLimit    int64 `json:"manualLimit"`
	EffectiveLimit int64 `json:"effectiveLimit"`
	LastCustom     int64 `json:"lastCustom"`
}

// SetLimitParams is the input for limit.set.
type SetLimitParams struct {
	Limit int64 `json:"limit"` // bytes per second, 0 = unlimited
}

// ScheduleResult reports the current schedule and its runtime state.
type ScheduleResult struct {
	Enabled        bool   `json:"enabled"`
	Days           string `json:"days"`
	Start          string `json:"start"`
	End            string `json:"end"`
	AltLimit       int64  `json:"altLimit"`
	ActiveNow      bool   `json:"activeNow"`
	NextTransition string `json:"nextTransition,omitempty"` // RFC3339, only when enabled
}

// SetScheduleParams is the input for schedule.set.
type SetScheduleParams struct {
	Enabled  bool   `json:"enabled"`
	Days     string `json:"days"`  // "mon,fri", "mon-fri", "all"
	Start    string `json:"start"` // "HH:MM"
	End      string `json:"end"`   // "HH:MM"
	AltLimit int64  `json:"altLimit"`
}

// SetAltLimitParams is the input for schedule.setAltLimit.
type SetAltLimitParams struct {
	AltLimit int64 `json:"altLimit"`
}

// StatusResult is the response for status.get.
type StatusResult struct {
	Limit    LimitResult    `json:"limit"`
	Schedule ScheduleResult `json:"schedule"`
}

// LimitChangedNotification is the payload of the limit.changed push.
type LimitChangedNotification struct {
	EffectiveLimit int64 `json:"effectiveLimit"`
}

// NewRPCServer creates an RPCServer with method handlers, the HTTP bridge
// and a notifier subscribed to the arbiter's effective-limit cell.
func NewRPCServer(cfg *RPCConfig, arb *arbiter.Arbiter, proc *scheduler.Process, l logger.Logger) *RPCServer {
	rs := &RPCServer{
		secret:   cfg.Secret,
		version:  cfg.Version,
		arb:      arb,
		proc:     proc,
		notifier: NewNotifier(l),
		log:      l,
	}

	rs.methods = handler.Map{
		"system.getVersion":    handler.New(rs.systemGetVersion),
		"limit.get":            handler.New(rs.limitGet),
		"limit.set":            handler.New(rs.limitSet),
		"limit.toggle":         handler.New(rs.limitToggle),
		"schedule.get":         handler.New(rs.scheduleGet),
		"schedule.set":         handler.New(rs.scheduleSet),
		"schedule.setAltLimit": handler.New(rs.scheduleSetAltLimit),
		"schedule.toggle":      handler.New(rs.scheduleToggle),
		"status.get":           handler.New(rs.statusGet),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)

	arb.Effective().Subscribe(func(n int64) {
		rs.notifier.Broadcast(EffectiveLimitChanged, &LimitChangedNotification{EffectiveLimit: n})
	})
	return rs
}

// Handler returns the full HTTP handler: the JSON-RPC bridge at /rpc and
// the WebSocket endpoint at /ws, both behind Bearer auth when a secret is
// configured.
func (rs *RPCServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/rpc", rs.bridge)
	mux.HandleFunc("/ws", rs.handleWS)
	if rs.secret == "" {
		return mux
	}
	return requireToken(rs.secret, mux)
}

// Close shuts down the jrpc2 bridge and disconnects WebSocket clients.
func (rs *RPCServer) Close() {
	rs.notifier.CloseAll()
	rs.bridge.Close()
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{Version: rs.version}, nil
}

func (rs *RPCServer) limitResult() *LimitResult {
	return &LimitResult{
		ManualLimit:    rs.arb.ManualLimit(),
		EffectiveLimit: rs.arb.Effective().Get(),
		LastCustom:     rs.arb.LastCustom(),
	}
}

func (rs *RPCServer) limitGet(_ context.Context) (*LimitResult, error) {
	return rs.limitResult(), nil
}

func (rs *RPCServer) limitSet(_ context.Context, p *SetLimitParams) (*LimitResult, error) {
	if err := rs.arb.SetManualLimit(p.Limit); err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return rs.limitResult(), nil
}

func (rs *RPCServer) limitToggle(_ context.Context) (*LimitResult, error) {
	rs.arb.ToggleManualLimit()
	return rs.limitResult(), nil
}

func (rs *RPCServer) scheduleResult() *ScheduleResult {
	s := rs.arb.Schedule()
	res := &ScheduleResult{
		Enabled:   s.Enabled,
		Days:      s.Days.String(),
		Start:     s.Start.String(),
		End:       s.End.String(),
		AltLimit:  s.AltLimit,
		ActiveNow: rs.proc.ActiveNow(),
	}
	if s.Enabled {
		res.NextTransition = schedule.NextTransition(time.Now(), s).Format(time.RFC3339)
	}
	return res
}

func (rs *RPCServer) scheduleGet(_ context.Context) (*ScheduleResult, error) {
	return rs.scheduleResult(), nil
}

func (rs *RPCServer) scheduleSet(_ context.Context, p *SetScheduleParams) (*ScheduleResult, error) {
	days, err := schedule.ParseDays(p.Days)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "invalid days: " + err.Error()}
	}
	start, err := schedule.ParseClock(p.Start)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "invalid start: " + err.Error()}
	}
	end, err := schedule.ParseClock(p.End)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "invalid end: " + err.Error()}
	}
	s, err := schedule.New(p.Enabled, days, start, end, p.AltLimit)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidSchedule, Message: err.Error()}
	}
	rs.arb.SetSchedule(s)
	return rs.scheduleResult(), nil
}

func (rs *RPCServer) scheduleSetAltLimit(_ context.Context, p *SetAltLimitParams) (*ScheduleResult, error) {
	if err := rs.arb.SetAltLimit(p.AltLimit); err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidSchedule, Message: err.Error()}
	}
	return rs.scheduleResult(), nil
}

func (rs *RPCServer) scheduleToggle(_ context.Context) (*ScheduleResult, error) {
	rs.arb.ToggleSchedule()
	return rs.scheduleResult(), nil
}

func (rs *RPCServer) statusGet(_ context.Context) (*StatusResult, error) {
	return &StatusResult{
		Limit:    *rs.limitResult(),
		Schedule: *rs.scheduleResult(),
	}, nil
}
