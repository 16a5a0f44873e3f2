// Package cli implements the pm command surface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"pm/internal/config"
	"pm/internal/db"
	"pm/internal/gitscan"
	"pm/internal/metrics"
	"pm/internal/priority"
)

// App bundles the store, configuration and engines behind the commands.
type App struct {
	DB       *db.DB
	Config   *config.Config
	Log      *log.Logger
	Priority *priority.Calculator
	Metrics  *metrics.Calculator
	Scanner  *gitscan.Scanner
	Out      io.Writer
	Stdin    io.Reader
}

// Run executes the pm CLI.
func Run(args []string) error {
	cfgPath := os.Getenv("PM_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if cfg.Verbose || os.Getenv("PM_VERBOSE") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	dbPath := cfg.DBPath
	if env := os.Getenv("PM_DB"); env != "" {
		dbPath = env
	}
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	app := &App{
		DB:       database,
		Config:   cfg,
		Log:      logger,
		Priority: priority.New(database, cfg),
		Metrics:  metrics.New(database),
		Scanner:  gitscan.New(database, logger),
		Out:      os.Stdout,
		Stdin:    os.Stdin,
	}

	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" || args[0] == "help" {
		printUsage(os.Stdout)
		return nil
	}

	subcommand := args[0]
	rest := args[1:]

	switch subcommand {
	case "init":
		return app.cmdInit(rest)
	case "project":
		return app.cmdProject(rest)
	case "projects":
		return app.projectList(rest)
	case "goal":
		return app.cmdGoal(rest)
	case "goals":
		return app.goalList(rest)
	case "todo":
		return app.cmdTodo(rest)
	case "todos":
		return app.todoList(rest)
	case "prioritize":
		return app.cmdPrioritize(rest)
	case "status":
		return app.cmdStatus(rest)
	case "trend":
		return app.cmdTrend(rest)
	case "burndown":
		return app.cmdBurndown(rest)
	case "snapshot":
		return app.cmdSnapshot(rest)
	case "history":
		return app.cmdHistory(rest)
	case "sync":
		return app.cmdSync(rest)
	case "export":
		return app.cmdExport(rest)
	case "import":
		return app.cmdImport(rest)
	case "review":
		return app.cmdReview(rest)
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `pm - personal project tracker

Usage:
  pm <command> [arguments]

Commands:
  init         Scan the workspace and register projects
  project      Manage projects (list, add, show, update, remove)
  goal         Manage goals (add, list, show, update)
  todo         Manage todos (add, list, show, start, complete, block)
  prioritize   Recalculate todo priority scores
  status       Show project health, breakdowns and deadlines
  trend        Show weekly velocity trend
  burndown     Show burn-down for a goal
  snapshot     Record today's metric snapshot
  history      Show stored metric history
  sync         Sync git commits into the store
  export       Export a project to JSON
  import       Import a project from JSON
  review       Open the interactive review dashboard

Aliases: projects, goals, todos list the respective entities directly.

Environment:
  PM_CONFIG    Config file path (default ~/.pm/config.toml)
  PM_DB        Database file path
  PM_VERBOSE   Enable debug logging
`)
}
