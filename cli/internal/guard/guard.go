// Package guard implements the optional background watch mode: a small
// service that watches the Claude Code logs directory and runs the same
// budget check the session-start hook runs, so users who have not wired
// hooks still get threshold warnings (in the service log). It shares the
// hook flow's state file, so a rung warned about here stays suppressed
// in the hooks and vice versa.
package guard

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kardianos/service"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/config"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/output"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/cache"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/costs"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/parser"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/warning"
)

// recheckInterval caps how often filesystem events may trigger a
// recompute. Log files grow line by line during a session; one check per
// interval is plenty for an advisory warning.
const recheckInterval = 30 * time.Second

// Guard implements service.Interface for the background watch mode.
type Guard struct {
	cfg *config.Config
	log *zap.Logger

	stop  chan struct{}
	cache *cache.Cache
}

// New creates a guard over the given configuration.
func New(cfg *config.Config, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{cfg: cfg, log: log}
}

// Start begins the watch loop in the background.
func (g *Guard) Start(svc service.Service) error {
	g.stop = make(chan struct{})

	if g.cfg.CachePath != "" {
		c, err := cache.Open(g.cfg.CachePath)
		if err != nil {
			g.log.Warn("scan cache unavailable, parsing directly", zap.Error(err))
		} else {
			g.cache = c
		}
	}

	go g.run()
	return nil
}

// Stop terminates the watch loop.
func (g *Guard) Stop(svc service.Service) error {
	close(g.stop)
	if g.cache != nil {
		g.cache.Close()
	}
	return nil
}

func (g *Guard) run() {
	// Check immediately on start, then on log activity and on the timer.
	g.check()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		g.log.Warn("filesystem watcher unavailable, falling back to timer only", zap.Error(err))
	} else {
		defer watcher.Close()
		g.watchTree(watcher, g.cfg.LogsDir)
	}

	limiter := rate.NewLimiter(rate.Every(recheckInterval), 1)
	ticker := time.NewTicker(g.cfg.GuardInterval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errors chan error
	if watcher != nil {
		events = watcher.Events
		errors = watcher.Errors
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// New project directories appear as sessions start; watch them.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					g.watchTree(watcher, ev.Name)
				}
			}
			if limiter.Allow() {
				g.check()
			}

		case err, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			g.log.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			g.check()

		case <-g.stop:
			return
		}
	}
}

// watchTree adds root and every directory under it to the watcher.
// fsnotify watches are not recursive.
func (g *Guard) watchTree(watcher *fsnotify.Watcher, root string) {
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := watcher.Add(path); err != nil {
				g.log.Debug("could not watch directory", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	})
}

// check recomputes current-month spend and runs the warning decision.
func (g *Guard) check() {
	records, err := parser.ScanAll(g.cfg.LogsDir, g.cache)
	if err != nil {
		g.log.Warn("could not read usage logs", zap.Error(err))
		return
	}

	now := time.Now()
	records = parser.FilterMonth(records, now.Year(), now.Month(), now.Location())
	summary := costs.Summarize(records)
	level, percentage := warning.LevelFor(summary.TotalCost, g.cfg.Budget)

	engine := warning.NewEngine(warning.NewFileStore(g.cfg.StatePath), g.log)
	if engine.Evaluate(level, warning.CurrentMonth(now)) {
		g.log.Warn("budget threshold crossed",
			zap.String("level", string(level)),
			zap.Float64("cost", summary.TotalCost),
			zap.Float64("budget", g.cfg.Budget),
			zap.String("message", output.WarningMessage(level, summary.TotalCost, g.cfg.Budget, summary.Breakdown)))
		return
	}

	g.log.Info("cost check",
		zap.Float64("cost", summary.TotalCost),
		zap.Float64("percentage", percentage),
		zap.String("level", string(level)))
}
