package warning

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// thresholds are the percentage-of-budget rungs, highest first.
var thresholds = []struct {
	pct   float64
	level Level
}{
	{125, Level125},
	{100, Level100},
	{90, Level90},
	{75, Level75},
	{50, Level50},
}

// LevelFor returns the warning level for the given spend against the
// budget, along with the percentage used. A non-positive budget always
// yields LevelNone rather than an error.
func LevelFor(cost, budget float64) (Level, float64) {
	if budget <= 0 {
		return LevelNone, 0
	}

	percentage := cost / budget * 100
	for _, t := range thresholds {
		if percentage >= t.pct {
			return t.level, percentage
		}
	}
	return LevelNone, percentage
}

// CurrentMonth formats a time as a "YYYY-MM" month string.
func CurrentMonth(now time.Time) string {
	return now.Format("2006-01")
}

// Engine decides whether a freshly computed warning level warrants a new
// warning, consulting and updating the persisted state. Warnings are
// monotonic within a month: a level already warned about, or a lower
// one, is suppressed. A month change resets the reference rung.
type Engine struct {
	store Store
	now   func() time.Time
	log   *zap.Logger
}

// NewEngine creates an Engine over the given store. A nil logger
// disables diagnostics.
func NewEngine(store Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, now: time.Now, log: log}
}

// WithClock overrides the engine's clock. Used in tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate reports whether a warning should be emitted for the given
// level and month. When it returns true the state store has already been
// updated to record the warning; emission and the update are one logical
// operation. A failed state write is swallowed: the worst outcome is one
// duplicate warning on the next check.
func (e *Engine) Evaluate(level Level, month string) bool {
	st, err := e.store.Load()
	if err != nil {
		e.log.Debug("warning state unreadable, using defaults", zap.Error(err))
	}

	var warn bool
	if st.LastWarningMonth != month {
		// New period: the reference rung resets to none.
		warn = level != LevelNone
	} else {
		warn = rungIndex(level) > rungIndex(st.LastWarningLevel)
	}

	if warn {
		st.LastWarningLevel = level
		st.LastWarningMonth = month
		st.LastCostCheck = e.now().Format(time.RFC3339)
		if err := e.store.Save(st); err != nil {
			e.log.Warn("failed to persist warning state", zap.Error(err))
		}
	}
	return warn
}

// RecordCheck bumps the last-check timestamp without touching the
// warning level. Used at session end.
func (e *Engine) RecordCheck() {
	st, err := e.store.Load()
	if err != nil {
		e.log.Debug("warning state unreadable, using defaults", zap.Error(err))
	}

	st.LastCostCheck = e.now().Format(time.RFC3339)
	if err := e.store.Save(st); err != nil {
		e.log.Warn("failed to persist warning state", zap.Error(err))
	}
}

// Reset restores the default state.
func (e *Engine) Reset() error {
	return e.store.Save(DefaultState())
}

// Summary returns a human-readable dump of the persisted state.
func (e *Engine) Summary() string {
	st, _ := e.store.Load()

	var b strings.Builder
	b.WriteString("Cost guardrail state:\n")
	fmt.Fprintf(&b, "  Last warning level: %s\n", st.LastWarningLevel)

	month := st.LastWarningMonth
	if month == "" {
		month = "never"
	}
	fmt.Fprintf(&b, "  Last warning month: %s\n", month)

	check := st.LastCostCheck
	if check == "" {
		check = "never"
	}
	fmt.Fprintf(&b, "  Last cost check:    %s", check)

	return b.String()
}
