package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Baseline carries counts an Apply captured before mutating anything, for
// its Verify to compare against.
type Baseline map[string]int64

// Step migrates a database from version From to From+1. Apply and Verify run
// inside the same transaction; the runner commits only when both succeed.
// Both must tolerate running against a database the step already migrated.
type Step struct {
	From   int
	Name   string
	Apply  func(ctx context.Context, tx *sql.Tx, in Inspector) (Baseline, error)
	Verify func(ctx context.Context, tx *sql.Tx, in Inspector, before Baseline) error
}

// To is the version the step produces.
func (s Step) To() int { return s.From + 1 }

// Catalog is an immutable, gap-free set of migration steps together with the
// fresh-install schema for its current version.
type Catalog struct {
	lowest  int
	current int
	fresh   []string
	steps   map[int]Step
}

// NewCatalog validates and builds a catalog. Every version in
// [lowest, current-1] must have exactly one step and no step may fall
// outside that range.
func NewCatalog(lowest, current int, fresh []string, steps ...Step) (*Catalog, error) {
	if lowest < 1 || current < lowest {
		return nil, fmt.Errorf("%w: version range [%d, %d]", types.ErrCatalogInvalid, lowest, current)
	}
	if len(fresh) == 0 {
		return nil, fmt.Errorf("%w: empty fresh schema", types.ErrCatalogInvalid)
	}

	byFrom := make(map[int]Step, len(steps))
	for _, s := range steps {
		if s.Apply == nil || s.Verify == nil {
			return nil, fmt.Errorf("%w: step from %d lacks apply or verify", types.ErrCatalogInvalid, s.From)
		}
		if s.From < lowest || s.From >= current {
			return nil, fmt.Errorf("%w: step from %d outside [%d, %d]", types.ErrCatalogInvalid, s.From, lowest, current-1)
		}
		if _, dup := byFrom[s.From]; dup {
			return nil, fmt.Errorf("%w: duplicate step from %d", types.ErrCatalogInvalid, s.From)
		}
		byFrom[s.From] = s
	}
	for v := lowest; v < current; v++ {
		if _, ok := byFrom[v]; !ok {
			return nil, fmt.Errorf("%w: no step from version %d", types.ErrMissingStep, v)
		}
	}

	return &Catalog{
		lowest:  lowest,
		current: current,
		fresh:   append([]string(nil), fresh...),
		steps:   byFrom,
	}, nil
}

// DefaultCatalog returns the built-in catalog. An invalid built-in catalog is
// a packaging defect, so it panics.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(types.LowestSupportedSchemaVersion, types.CurrentSchemaVersion, FreshSchema(), DefaultSteps()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lowest is the oldest version the catalog can migrate from.
func (c *Catalog) Lowest() int { return c.lowest }

// Current is the version a fresh install or a full migration produces.
func (c *Catalog) Current() int { return c.current }

// Fresh returns a copy of the fresh-install statements.
func (c *Catalog) Fresh() []string { return append([]string(nil), c.fresh...) }

// Step returns the step migrating from version v.
func (c *Catalog) Step(v int) (Step, bool) {
	s, ok := c.steps[v]
	return s, ok
}

// Steps returns all steps in ascending From order.
func (c *Catalog) Steps() []Step {
	out := make([]Step, 0, len(c.steps))
	for _, s := range c.steps {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}
