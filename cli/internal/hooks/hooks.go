// Package hooks implements the session-start and stop lifecycle hooks.
// Hooks are advisory: they emit a structured message on stdout and must
// never block the host session, so every failure path here degrades to
// either an in-band message or silence.
package hooks

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/config"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/output"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/cache"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/costs"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/parser"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/warning"
)

// Hook event names as Claude Code expects them.
const (
	EventSessionStart = "SessionStart"
	EventStop         = "Stop"
)

// Output is the structured message a hook writes to stdout.
type Output struct {
	HookSpecificOutput EventMessage `json:"hookSpecificOutput"`
}

// EventMessage names the triggering event and carries the text payload.
type EventMessage struct {
	HookEventName string `json:"hookEventName"`
	SystemMessage string `json:"systemMessage"`
}

// Runner wires the scanner, aggregator, and decision engine together for
// hook invocations.
type Runner struct {
	cfg   *config.Config
	store warning.Store
	cache *cache.Cache
	now   func() time.Time
	log   *zap.Logger
}

// NewRunner creates a hook runner. The cache may be nil.
func NewRunner(cfg *config.Config, store warning.Store, c *cache.Cache, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, store: store, cache: c, now: time.Now, log: log}
}

// WithClock overrides the runner's clock. Used in tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// monthRecords scans the logs and filters to the current calendar month
// on the local clock.
func (r *Runner) monthRecords() ([]model.UsageRecord, error) {
	records, err := parser.ScanAll(r.cfg.LogsDir, r.cache)
	if err != nil {
		return nil, err
	}
	now := r.now()
	return parser.FilterMonth(records, now.Year(), now.Month(), now.Location()), nil
}

// SessionStart checks current-month spend against the budget and returns
// a warning message if a new threshold has been crossed. Returns nil
// when nothing should be shown. Internal failures come back as an
// in-band message rather than an error.
func (r *Runner) SessionStart() (out *Output) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("session-start hook panicked", zap.Any("panic", v))
			out = &Output{HookSpecificOutput: EventMessage{
				HookEventName: EventSessionStart,
				SystemMessage: fmt.Sprintf("⚠️ Cost guardrail error: %v\nPlease check %s", v, r.cfg.StatePath),
			}}
		}
	}()

	records, err := r.monthRecords()
	if err != nil {
		return &Output{HookSpecificOutput: EventMessage{
			HookEventName: EventSessionStart,
			SystemMessage: fmt.Sprintf("⚠️ Cost guardrail error: %v\nPlease check %s", err, r.cfg.LogsDir),
		}}
	}

	summary := costs.Summarize(records)
	level, _ := warning.LevelFor(summary.TotalCost, r.cfg.Budget)
	month := warning.CurrentMonth(r.now())

	engine := warning.NewEngine(r.store, r.log).WithClock(r.now)
	if !engine.Evaluate(level, month) {
		return nil
	}

	msg := output.WarningMessage(level, summary.TotalCost, r.cfg.Budget, summary.Breakdown)
	return &Output{HookSpecificOutput: EventMessage{
		HookEventName: EventSessionStart,
		SystemMessage: msg,
	}}
}

// Stop records that a cost check happened and returns a brief spending
// summary. Any failure is silent: nil output, nothing shown at session
// end.
func (r *Runner) Stop() (out *Output) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("stop hook panicked", zap.Any("panic", v))
			out = nil
		}
	}()

	records, err := r.monthRecords()
	if err != nil {
		r.log.Debug("stop hook could not read usage", zap.Error(err))
		return nil
	}

	summary := costs.Summarize(records)

	engine := warning.NewEngine(r.store, r.log).WithClock(r.now)
	engine.RecordCheck()

	return &Output{HookSpecificOutput: EventMessage{
		HookEventName: EventStop,
		SystemMessage: output.SummaryMessage(summary.TotalCost, r.cfg.Budget),
	}}
}
