package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/keeper/internal/sqlite"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// App is the organizer's store context: it owns the database handle and
// hands it out only after the store has been initialized.
type App struct {
	cfg        types.Config
	logger     *slog.Logger
	runnerOpts []sqlite.RunnerOption

	handles *sqlite.HandleManager
	meta    *sqlite.MetadataStore
	seq     *Sequencer
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger for the App and everything it drives.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithRunnerOptions passes options through to the migration runner.
func WithRunnerOptions(opts ...sqlite.RunnerOption) Option {
	return func(a *App) { a.runnerOpts = append(a.runnerOpts, opts...) }
}

// New validates cfg and builds an App. Nothing is opened until Initialize.
func New(cfg types.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.runnerOpts = append([]sqlite.RunnerOption{sqlite.WithLogger(a.logger)}, a.runnerOpts...)

	a.handles = sqlite.NewHandleManager(cfg.DBPath(), a.logger, a.runnerOpts...)
	a.meta = sqlite.NewMetadataStore(nil)
	a.seq = NewSequencer(a.initialize, a.logger)
	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() types.Config { return a.cfg }

// Initialize opens and migrates the database and repairs its invariants.
// It is safe to call from many goroutines; only one run happens at a time
// and a successful run is never repeated.
func (a *App) Initialize(ctx context.Context) error {
	return a.seq.Initialize(ctx)
}

func (a *App) initialize(ctx context.Context) error {
	db, err := a.handles.Acquire(ctx)
	if err != nil {
		return err
	}
	outcome, err := sqlite.EnsureDefaultCollection(ctx, db)
	if err != nil {
		return err
	}
	if outcome != sqlite.RepairNone {
		a.logger.Info("system collection repaired", "outcome", outcome.String())
	}
	a.logger.Info("store ready", "path", a.handles.Path(), "version", a.handles.Version())
	return nil
}

// State reports where initialization stands.
func (a *App) State() State { return a.seq.State() }

// Ready reports whether Initialize has completed.
func (a *App) Ready() bool { return a.seq.State() == StateCompleted }

// DB returns the ready database handle, or types.ErrNotReady before
// Initialize has completed.
func (a *App) DB(ctx context.Context) (*sql.DB, error) {
	if !a.Ready() {
		return nil, types.ErrNotReady
	}
	return a.handles.Acquire(ctx)
}

// Status reports the state of the database file.
func (a *App) Status(ctx context.Context) (sqlite.Report, error) {
	db, err := a.DB(ctx)
	if err != nil {
		return sqlite.Report{}, err
	}
	return sqlite.Diagnose(ctx, db, a.handles.Path(), a.runnerOpts...)
}

// Sound runs the table-count sanity check.
func (a *App) Sound(ctx context.Context) (bool, error) {
	db, err := a.DB(ctx)
	if err != nil {
		return false, err
	}
	return sqlite.Sound(ctx, db, nil)
}

// DisplayMode returns the stored appearance preference.
func (a *App) DisplayMode(ctx context.Context) (types.DisplayMode, error) {
	db, err := a.DB(ctx)
	if err != nil {
		return types.DisplayModeSystem, err
	}
	return a.meta.DisplayMode(ctx, db)
}

// SetDisplayMode stores the appearance preference.
func (a *App) SetDisplayMode(ctx context.Context, mode types.DisplayMode) error {
	db, err := a.DB(ctx)
	if err != nil {
		return err
	}
	return a.meta.SetDisplayMode(ctx, db, mode)
}

// Reset drops all data and reinstalls the current schema, then repairs the
// system collection. It fails with types.ErrResetDisabled unless the config
// allows it.
func (a *App) Reset(ctx context.Context) (int, error) {
	if !a.cfg.AllowReset {
		return 0, types.ErrResetDisabled
	}
	db, err := a.DB(ctx)
	if err != nil {
		return 0, err
	}

	a.logger.Warn("resetting store", "path", a.handles.Path())
	version, err := sqlite.Reset(ctx, db, a.runnerOpts...)
	if err != nil {
		return 0, err
	}
	if _, err := sqlite.EnsureDefaultCollection(ctx, db); err != nil {
		return version, err
	}
	return version, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.handles.Close()
}

var _ types.Store = (*App)(nil)
