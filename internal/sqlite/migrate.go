package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Runner brings a database to the catalog's current schema version.
type Runner struct {
	db         *sql.DB
	catalog    *Catalog
	meta       *MetadataStore
	inspector  Inspector
	logger     *slog.Logger
	verifyHook func(Step) error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) RunnerOption {
	return func(r *Runner) { r.catalog = c }
}

// WithInspector replaces the SQLite schema inspector.
func WithInspector(in Inspector) RunnerOption {
	return func(r *Runner) { r.inspector = in }
}

// WithLogger sets the logger used for migration progress.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithVerifyHook adds an extra check run after each step's own Verify, inside
// the step transaction. A non-nil error fails the step.
func WithVerifyHook(fn func(Step) error) RunnerOption {
	return func(r *Runner) { r.verifyHook = fn }
}

// NewRunner returns a runner over db using the built-in catalog unless an
// option says otherwise.
func NewRunner(db *sql.DB, opts ...RunnerOption) *Runner {
	r := &Runner{db: db}
	for _, opt := range opts {
		opt(r)
	}
	if r.catalog == nil {
		r.catalog = DefaultCatalog()
	}
	if r.inspector == nil {
		r.inspector = SQLiteInspector{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.meta = NewMetadataStore(r.inspector)
	return r
}

// Plan describes what EnsureCurrent would do.
type Plan struct {
	Stored       int    // version migrations start from, 0 when none
	Target       int    // catalog current version
	FreshInstall bool   // no version recorded; the full schema will be created
	Inferred     bool   // no version recorded but entity tables exist; Stored is the catalog's lowest
	Steps        []Step // steps to apply, in order
}

// recorded is the version actually stored in the database.
func (p Plan) recorded() int {
	if p.Inferred {
		return 0
	}
	return p.Stored
}

// UpToDate reports whether nothing needs to run.
func (p Plan) UpToDate() bool { return !p.FreshInstall && !p.Inferred && len(p.Steps) == 0 }

// Plan reads the stored version and resolves the steps needed to reach the
// current version. A file with no recorded version but with entity tables
// of any generation is migrated from the catalog's lowest version, since
// every step tolerates an already-migrated table. A version the catalog has
// no step for fails with types.ErrMissingStep.
func (r *Runner) Plan(ctx context.Context) (Plan, error) {
	stored, err := r.meta.SchemaVersion(ctx, r.db)
	if err != nil {
		return Plan{}, fmt.Errorf("reading schema version: %w", err)
	}
	p := Plan{Stored: stored, Target: r.catalog.Current()}

	if stored == 0 {
		populated, err := r.hasEntityTables(ctx)
		if err != nil {
			return p, err
		}
		if !populated {
			p.FreshInstall = true
			return p, nil
		}
		p.Stored, p.Inferred = r.catalog.Lowest(), true
	}
	if p.Stored >= p.Target {
		return p, nil
	}

	for v := p.Stored; v < p.Target; v++ {
		step, ok := r.catalog.Step(v)
		if !ok {
			return p, fmt.Errorf("%w: no step from version %d (lowest supported %d)", types.ErrMissingStep, v, r.catalog.Lowest())
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// Pending returns the steps EnsureCurrent would apply, in order. A fresh
// install has no pending steps.
func (r *Runner) Pending(ctx context.Context) ([]Step, error) {
	p, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return p.Steps, nil
}

// EnsureCurrent migrates the database to the current version and returns the
// version it ends at. A file with neither a recorded version nor entity
// tables gets the fresh schema in one transaction. Older versions get each
// pending step in its own transaction followed by a single version write.
// Current or newer versions are left alone.
//
// Any error leaves the stored version where it was before the failed
// transaction, so calling EnsureCurrent again resumes safely.
func (r *Runner) EnsureCurrent(ctx context.Context) (int, error) {
	p, err := r.Plan(ctx)
	if err != nil {
		return p.recorded(), err
	}

	if p.FreshInstall {
		if err := r.freshInstall(ctx); err != nil {
			return 0, err
		}
		r.logger.Info("schema created", "version", p.Target)
		return p.Target, nil
	}
	if p.Stored > p.Target {
		r.logger.Warn("database schema is newer than this build", "stored", p.Stored, "current", p.Target)
	}
	if p.Inferred {
		r.logger.Warn("no schema version recorded; migrating from lowest supported version", "from", p.Stored)
	}
	if len(p.Steps) == 0 && !p.Inferred {
		return p.Stored, nil
	}

	for _, step := range p.Steps {
		if err := r.applyStep(ctx, step); err != nil {
			return p.recorded(), err
		}
	}

	if err := r.recordVersion(ctx, p.Target); err != nil {
		return p.recorded(), err
	}
	r.logger.Info("schema migrated", "from", p.Stored, "to", p.Target, "steps", len(p.Steps))
	return p.Target, nil
}

// hasEntityTables reports whether any table other than app_metadata from
// any schema generation exists.
func (r *Runner) hasEntityTables(ctx context.Context) (bool, error) {
	for _, table := range types.KnownTableNames {
		if table == types.TableMetadata {
			continue
		}
		exists, err := r.inspector.TableExists(ctx, r.db, table)
		if err != nil {
			return false, fmt.Errorf("inspecting %s: %w", table, err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runner) freshInstall(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", types.ErrFreshInstall, err)
	}
	defer tx.Rollback()

	for i, stmt := range r.catalog.Fresh() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %w", types.ErrFreshInstall, i+1, err)
		}
	}
	if err := r.meta.EnsureTable(ctx, tx); err != nil {
		return fmt.Errorf("%w: %w", types.ErrFreshInstall, err)
	}
	if err := r.meta.SetSchemaVersion(ctx, tx, r.catalog.Current()); err != nil {
		return fmt.Errorf("%w: %w", types.ErrFreshInstall, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %w", types.ErrFreshInstall, err)
	}
	return nil
}

// recordVersion writes v, creating app_metadata first when the file never
// had one.
func (r *Runner) recordVersion(ctx context.Context, v int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recording schema version %d: %w", v, err)
	}
	defer tx.Rollback()

	if err := r.meta.EnsureTable(ctx, tx); err != nil {
		return err
	}
	if err := r.meta.SetSchemaVersion(ctx, tx, v); err != nil {
		return fmt.Errorf("recording schema version %d: %w", v, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording schema version %d: %w", v, err)
	}
	return nil
}

// applyStep runs one step in its own transaction: apply, verify, commit. On
// any failure the transaction is rolled back and a *types.StepError returned.
func (r *Runner) applyStep(ctx context.Context, step Step) error {
	log := r.logger.With("step", step.Name, "from", step.From, "to", step.To())
	log.Debug("applying migration step")

	fail := func(check string, err error) error {
		log.Error("migration step rolled back", "check", check, "error", err)
		return &types.StepError{From: step.From, Name: step.Name, Check: check, Err: err}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("begin", err)
	}
	defer tx.Rollback()

	before, err := step.Apply(ctx, tx, r.inspector)
	if err != nil {
		return fail("apply", err)
	}
	if err := step.Verify(ctx, tx, r.inspector, before); err != nil {
		return fail(checkName(err))
	}
	if r.verifyHook != nil {
		if err := r.verifyHook(step); err != nil {
			return fail(checkName(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fail("commit", err)
	}

	log.Info("migration step committed")
	return nil
}
