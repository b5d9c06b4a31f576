package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kardianos/service"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/config"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/guard"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/hooks"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/cli/internal/output"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/cache"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/costs"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/logging"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/parser"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/warning"
)

const version = "0.1.0"

func main() {
	command := "status"
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "status", "session-start", "stop", "state", "reset", "guard":
			command = args[0]
			args = args[1:]
		case "--help", "-h", "help":
			usage()
			return
		case "--version", "-v":
			fmt.Printf("ccguard version %s\n", version)
			return
		}
	}

	switch command {
	case "session-start":
		runHook(hooks.EventSessionStart, args)
	case "stop":
		runHook(hooks.EventStop, args)
	case "state":
		runState(args)
	case "reset":
		runReset(args)
	case "guard":
		runGuard(args)
	default:
		runStatus(args)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `ccguard - budget guardrail for Claude Code API spend

Usage: ccguard [command] [options]

Commands:
  status         Show current-month spending report (default)
  session-start  SessionStart hook: warn when a budget threshold is crossed
  stop           Stop hook: show a brief spending summary
  state          Show the persisted warning state
  reset          Reset the persisted warning state
  guard          Manage the background guard service

Examples:
  ccguard
  ccguard status --json
  ccguard reset
  ccguard guard install
`)
}

// commonFlags registers the flags every subcommand shares and returns
// pointers to their values.
func commonFlags(fs *flag.FlagSet) (configPath, logsDir *string, budget *float64) {
	configPath = fs.String("config", "", "Path to config file (default ~/.ccguard.yaml)")
	logsDir = fs.String("logs-dir", "", "Claude Code logs directory override")
	budget = fs.Float64("budget", 0, "Monthly budget in dollars override")
	return
}

func loadConfig(configPath, logsDir string, budget float64) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logsDir != "" {
		cfg.LogsDir = logsDir
	}
	if budget > 0 {
		cfg.Budget = budget
	}
	return cfg, nil
}

// openCache opens the scan cache; a nil return just means slower scans.
func openCache(cfg *config.Config) *cache.Cache {
	if cfg.CachePath == "" {
		return nil
	}
	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil
	}
	return c
}

// runHook executes a lifecycle hook. Hooks always exit 0: errors are
// reported in-band (session-start) or swallowed (stop) so the host
// session is never blocked.
func runHook(event string, args []string) {
	defer os.Exit(0)

	fs := flag.NewFlagSet(event, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath, logsDir, budget := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return
	}

	// Hook input arrives on stdin but carries nothing this tool needs.
	io.Copy(io.Discard, os.Stdin)

	cfg, err := loadConfig(*configPath, *logsDir, *budget)
	if err != nil {
		if event == hooks.EventSessionStart {
			emitHookOutput(&hooks.Output{HookSpecificOutput: hooks.EventMessage{
				HookEventName: event,
				SystemMessage: fmt.Sprintf("⚠️ Cost guardrail error: %v", err),
			}})
		}
		return
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	c := openCache(cfg)
	if c != nil {
		defer c.Close()
	}

	runner := hooks.NewRunner(cfg, warning.NewFileStore(cfg.StatePath), c, logger)

	var out *hooks.Output
	if event == hooks.EventSessionStart {
		out = runner.SessionStart()
	} else {
		out = runner.Stop()
	}
	emitHookOutput(out)
}

func emitHookOutput(out *hooks.Output) {
	if out == nil {
		return
	}
	json.NewEncoder(os.Stdout).Encode(out)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, logsDir, budget := commonFlags(fs)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *logsDir, *budget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	c := openCache(cfg)
	if c != nil {
		defer c.Close()
	}

	records, err := parser.ScanAll(cfg.LogsDir, c)
	if err != nil {
		// The one path allowed to fail loudly: usage cannot be determined.
		fmt.Fprintf(os.Stderr, "Error reading usage data: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please check that %s is readable.\n", cfg.LogsDir)
		os.Exit(1)
	}

	now := time.Now()
	records = parser.FilterMonth(records, now.Year(), now.Month(), now.Location())
	summary := costs.Summarize(records)
	level, _ := warning.LevelFor(summary.TotalCost, cfg.Budget)

	rep := output.StatusReport{
		Month:     now.Format("January 2006"),
		Cost:      summary.TotalCost,
		Budget:    cfg.Budget,
		Breakdown: summary.Breakdown,
		Stats:     summary.Stats,
		Level:     level,
	}

	if *jsonOut {
		rep.Month = warning.CurrentMonth(now)
		if err := output.WriteStatusJSON(os.Stdout, rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	output.WriteStatus(os.Stdout, rep)
}

func runState(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	configPath, logsDir, budget := commonFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *logsDir, *budget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	engine := warning.NewEngine(warning.NewFileStore(cfg.StatePath), nil)
	fmt.Println(engine.Summary())
}

func runReset(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath, logsDir, budget := commonFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *logsDir, *budget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	engine := warning.NewEngine(warning.NewFileStore(cfg.StatePath), nil)
	if err := engine.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Error resetting state: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Warning state reset.")
}

func runGuard(args []string) {
	fs := flag.NewFlagSet("guard", flag.ExitOnError)
	configPath, logsDir, budget := commonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccguard guard [command] [options]

Commands:
  install     Install as a background service
  start       Start the background service
  stop        Stop the background service
  uninstall   Remove the background service
  status      Show service status
  run         Run the guard loop in the foreground

Options:
`)
		fs.PrintDefaults()
	}

	// Check for service commands before parsing flags
	var svcCommand string
	if len(args) > 0 {
		switch args[0] {
		case "install", "start", "stop", "uninstall", "status", "run":
			svcCommand = args[0]
			args = args[1:]
		}
	}

	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *logsDir, *budget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	svcConfig := &service.Config{
		Name:        "ccguard",
		DisplayName: "ccguard budget watch",
		Description: "Watches Claude Code usage logs and warns when monthly budget thresholds are crossed",
		Arguments:   []string{"guard", "run"},
	}

	g := guard.New(cfg, logger)
	s, err := service.New(g, svcConfig)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch svcCommand {
	case "install":
		if err := s.Install(); err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}
		if err := s.Start(); err != nil {
			log.Fatalf("Service installed but failed to start: %v", err)
		}
		fmt.Println("Service installed and started.")

	case "start":
		if err := s.Start(); err != nil {
			log.Fatalf("Failed to start service: %v", err)
		}
		fmt.Println("Service started.")

	case "stop":
		if err := s.Stop(); err != nil {
			log.Fatalf("Failed to stop service: %v", err)
		}
		fmt.Println("Service stopped.")

	case "uninstall":
		s.Stop() // ignore error
		if err := s.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall service: %v", err)
		}
		fmt.Println("Service uninstalled.")

	case "status":
		status, err := s.Status()
		if err != nil {
			fmt.Printf("Service status: not installed or error (%v)\n", err)
			return
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service status: running")
		case service.StatusStopped:
			fmt.Println("Service status: stopped")
		default:
			fmt.Println("Service status: unknown")
		}

	case "run", "":
		// Foreground, or invoked by the service manager.
		if err := s.Run(); err != nil {
			log.Fatalf("Guard service failed: %v", err)
		}

	default:
		fs.Usage()
		os.Exit(1)
	}
}
