package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"aibomm/capsule/internal/config"
	"aibomm/capsule/internal/db"
	"aibomm/capsule/internal/logger"
)

var (
	dbPath    string
	envFile   string
	logFormat string
	verbose   bool

	appConfig = config.Default()
	appLog    = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "capsule",
	Short:         "Quick note capture with AI organizing and intent dispatch",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		cfg = applyFlagDefaults(cfg, logFormat)
		l, err := logger.New(cfg.LogFormat, verbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		appConfig = cfg
		appLog = l
		appLog.Debug("config loaded", "ai_enabled", cfg.AI.Enabled(), "model", cfg.AI.Model)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .capsule.db database")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading CAPSULE_* variables")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log encoding: console or json (CAPSULE_LOG_FORMAT takes precedence)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

// applyFlagDefaults fills settings the environment left unset from flags.
// Environment and .env values win, the same order DiscoverDB uses.
func applyFlagDefaults(cfg config.Config, flagLogFormat string) config.Config {
	if cfg.LogFormat == "" {
		cfg.LogFormat = flagLogFormat
	}
	return cfg
}

// DiscoverDB finds the database path using priority: env > flag > walk-up > XDG fallback.
// The XDG location is created on demand so a first run always has somewhere to write.
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := appConfig.DBPath; envPath != "" {
		return envPath, nil
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
			return "", fmt.Errorf("database directory not found for --db path: %s", dbPath)
		}
		return dbPath, nil
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		if found, ok := walkUpFor(dir, ".capsule.db"); ok {
			return found, nil
		}
	}

	// 4. XDG fallback
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no .capsule.db found and no home directory (set CAPSULE_DB or use --db): %w", err)
	}
	dataDir := filepath.Join(home, ".local", "share", "capsule")
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataDir = filepath.Join(xdg, "capsule")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return filepath.Join(dataDir, "capsule.db"), nil
}

func walkUpFor(dir, name string) (string, bool) {
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// OpenDatabase discovers and opens the database
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	appLog.Debug("opening database", "path", path)
	return db.OpenDB(path)
}

// ResolveNote finds a note by full ID, ID prefix, or full-text search.
func ResolveNote(d *db.DB, reference string) (*db.Note, error) {
	// 1. Exact ID match
	note, err := d.GetNote(reference)
	if err == nil {
		return note, nil
	}

	// 2. ID prefix match (≥6 hex/dash chars)
	if len(reference) >= 6 && isHexDash(reference) {
		matches, err := d.SearchByIDPrefix(strings.ToLower(reference), 10)
		if err == nil {
			switch len(matches) {
			case 1:
				return &matches[0], nil
			case 0:
				// fall through to FTS
			default:
				return nil, ambiguous(reference, matches, "Use a full note ID instead.")
			}
		}
	}

	// 3. FTS search
	results, err := d.SearchNotes(reference)
	if err == nil {
		switch len(results) {
		case 1:
			return &results[0], nil
		case 0:
			// fall through to not found
		default:
			return nil, ambiguous(reference, results, "Use a note ID instead.")
		}
	}

	return nil, fmt.Errorf("%w: %s", db.ErrNotFound, reference)
}

func ambiguous(reference string, matches []db.Note, hint string) error {
	limit := min(len(matches), 10)
	lines := make([]string, limit)
	for i := 0; i < limit; i++ {
		lines[i] = fmt.Sprintf("  %s %s", shortID(matches[i].ID), matches[i].Title)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\n%s",
		reference, len(matches), strings.Join(lines, "\n"), hint)
}

func isHexDash(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '-') {
			return false
		}
	}
	return true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
