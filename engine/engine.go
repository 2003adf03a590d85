// Package engine implements the connection and authorization core: it
// resolves the acting identity for every broker event, verifies
// credentials and session binding on connect, throttles publishes
// against monthly quotas and evaluates blacklist/whitelist topic rules.
package engine

import (
	"context"
	"time"

	"github.com/mqguard/mqguard/audit"
	"github.com/mqguard/mqguard/credentials"
	"github.com/mqguard/mqguard/directory"
	"github.com/mqguard/mqguard/logger"
)

var log = logger.Get().Named("engine")

// Engine owns the mutable shared state (connected-client set, session
// identity cache, quota tracker) and exposes the four broker entry
// points. One instance serves the whole broker process.
type Engine struct {
	config    *Config
	directory directory.UserDirectory
	verifier  credentials.Verifier
	evaluator *RuleEvaluator
	sessions  *SessionMap
	conns     *ConnSet
	quota     *QuotaTracker
	recorder  *audit.Recorder
}

func New(config *Config, dir directory.UserDirectory, rules directory.RuleStore, verifier credentials.Verifier) *Engine {
	if config == nil {
		config = DefaultConfig
	}
	return &Engine{
		config:    config,
		directory: dir,
		verifier:  verifier,
		evaluator: NewRuleEvaluator(rules),
		sessions:  NewSessionMap(),
		conns:     NewConnSet(),
		quota:     NewQuotaTracker(),
	}
}

// SetRecorder installs an audit recorder. Optional; without one only
// service logs are written.
func (e *Engine) SetRecorder(r *audit.Recorder) {
	e.recorder = r
}

// Close flushes the audit pipeline.
func (e *Engine) Close() error {
	if e.recorder != nil {
		return e.recorder.Close()
	}
	return nil
}

// Stats is a point-in-time view of the engine's shared state.
type Stats struct {
	Connections int `json:"connections"`
	Sessions    int `json:"sessions"`
}

func (e *Engine) Stats() Stats {
	return Stats{
		Connections: e.conns.Count(),
		Sessions:    e.sessions.Count(),
	}
}

// SessionKeys returns the live binding keys, for introspection.
func (e *Engine) SessionKeys() []string {
	return e.sessions.Keys()
}

// ConnectedClients returns the connected client ids, for introspection.
func (e *Engine) ConnectedClients() []string {
	return e.conns.ClientIDs()
}

// QuotaUsage returns the bytes a client published this month.
func (e *Engine) QuotaUsage(clientID string) (int64, bool) {
	return e.quota.Usage(clientID)
}

// opContext caps one directory or rule store call so a stalled backend
// resolves to a deny instead of hanging the broker callback.
func (e *Engine) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.OpTimeout())
}

func (e *Engine) submit(ev *audit.Event) {
	if e.recorder == nil {
		return
	}
	ev.Timestamp = time.Now().Unix()
	e.recorder.Submit(ev)
}
