// Package sqlite provides the public constructor for the SQLite-backed
// organizer store while keeping the migration engine internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/keeper/internal/bootstrap"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// NewStore validates cfg and returns a store that has not been opened yet;
// call Initialize before using it. A nil logger means slog.Default().
//
// Example:
//
//	store, err := sqlite.NewStore(types.DefaultConfig(dataDir), nil)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	if err := store.Initialize(ctx); err != nil {
//	    return err
//	}
func NewStore(cfg types.Config, logger *slog.Logger) (types.Store, error) {
	var opts []bootstrap.Option
	if logger != nil {
		opts = append(opts, bootstrap.WithLogger(logger))
	}
	app, err := bootstrap.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return app, nil
}
