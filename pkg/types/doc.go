// Package types defines the configuration, table and metadata key names,
// schema version constants and standard errors shared by the keeper storage
// engine and its callers.
package types
