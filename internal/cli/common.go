package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/clock"
	"github.com/danieljhkim/modlay/internal/config"
	"github.com/danieljhkim/modlay/internal/engine"
	"github.com/danieljhkim/modlay/internal/fsops"
	"github.com/danieljhkim/modlay/internal/hash"
)

// newEngine creates a new engine with real implementations of all dependencies.
// The returned close function releases the catalog and must be called.
func newEngine() (*engine.Engine, func(), error) {
	// Get default paths
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Create real implementations
	fs := fsops.NewOsFS()

	// Ensure directories exist
	if err := paths.EnsureDirectories(fs.Afero()); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	store, err := catalog.OpenSQLite(paths.Catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	hasher := hash.NewSHA256Hasher(fs.Afero())
	clk := &clock.RealClock{}
	settings := config.NewSettingsStore(fs, paths.Settings)

	// Create engine
	eng := engine.New(store, fs, hasher, clk, settings, *paths)
	eng.SetLogger(newLogger())

	closeFn := func() {
		_ = store.Close()
	}
	return eng, closeFn, nil
}

// newLogger builds the stderr logger: warnings only, or every file
// operation with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
