// Package engine provides the core business logic for modlay operations.
//
// The engine package is the orchestration layer between CLI commands and the
// lower-level packages. It imports overlays into managed storage, applies
// them onto the installation root while archiving originals, retracts them
// while restoring those originals, and keeps the catalog in step.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Import/Remove: Overlay registration lifecycle
//   - Apply/Retract: Projection onto the installation root and its reversal
//   - ClearBackups/ListBackups: Backed-up path set maintenance
//
// Operations are synchronous and must be serialised by the caller; the
// engine holds no locks.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/clock"
	"github.com/danieljhkim/modlay/internal/config"
	"github.com/danieljhkim/modlay/internal/fsops"
	"github.com/danieljhkim/modlay/internal/hash"
	"github.com/danieljhkim/modlay/internal/pathmap"
	"github.com/danieljhkim/modlay/internal/planner"
)

// InstallRootProvider reads and persists the installation root setting.
// An empty string means the root has not been configured.
type InstallRootProvider interface {
	InstallRoot() (string, error)
	SetInstallRoot(root string) error
}

// Engine orchestrates all modlay operations.
// It is the main API surface called by the CLI.
type Engine struct {
	catalog  catalog.Store
	fs       fsops.FS
	hasher   hash.Hasher
	clock    clock.Clock
	settings InstallRootProvider
	paths    config.Paths
	logger   *slog.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	store catalog.Store,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	settings InstallRootProvider,
	paths config.Paths,
) *Engine {
	return &Engine{
		catalog:  store,
		fs:       fs,
		hasher:   hasher,
		clock:    clk,
		settings: settings,
		paths:    paths,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger replaces the engine logger. A nil logger discards output.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.logger = logger
}

// mapper builds a path mapper for the given installation root.
func (e *Engine) mapper(installRoot string) pathmap.Mapper {
	return pathmap.New(e.paths.Mods, installRoot, e.paths.Archive)
}

// requireInstallRoot returns the configured installation root or
// ErrInstallRootUnset.
func (e *Engine) requireInstallRoot() (string, error) {
	root, err := e.settings.InstallRoot()
	if err != nil {
		return "", fmt.Errorf("failed to read installation root: %w", err)
	}
	if root == "" {
		return "", ErrInstallRootUnset
	}
	return root, nil
}

// loadOverlay validates name and loads the overlay from the catalog.
func (e *Engine) loadOverlay(name string) (*catalog.Overlay, error) {
	if err := e.fs.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	overlay, err := e.catalog.GetOverlay(name)
	if err != nil {
		return nil, err
	}
	return overlay, nil
}

// planInput gathers the state both plan builders read.
func (e *Engine) planInput(overlay *catalog.Overlay, installRoot string) (planner.Input, error) {
	backedUp, err := e.catalog.BackedUpPaths()
	if err != nil {
		return planner.Input{}, fmt.Errorf("failed to load backed up paths: %w", err)
	}
	others, err := e.catalog.ListOverlays()
	if err != nil {
		return planner.Input{}, fmt.Errorf("failed to list overlays: %w", err)
	}
	return planner.Input{
		Overlay:  overlay,
		Others:   others,
		Mapper:   e.mapper(installRoot),
		BackedUp: backedUp,
		FS:       e.fs,
	}, nil
}
