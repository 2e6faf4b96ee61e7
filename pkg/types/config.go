package types

import (
	"errors"
	"path/filepath"
)

// Config holds the parameters needed to open and bootstrap the organizer store.
type Config struct {
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	DBName     string `json:"db_name" yaml:"db_name"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
	LogFormat  string `json:"log_format" yaml:"log_format"`
	AllowReset bool   `json:"allow_reset" yaml:"allow_reset"`
}

// Defaults applied by DefaultConfig and by the CLI config loader.
const (
	DefaultDBName    = "keeper.db"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Log formats accepted by Validate.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config validation errors.
var (
	ErrDBNameEmpty      = errors.New("db name must not be empty")
	ErrDBNameHasPath    = errors.New("db name must be a file name, not a path")
	ErrLogLevelUnknown  = errors.New("unknown log level")
	ErrLogFormatUnknown = errors.New("unknown log format")
)

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var knownLogFormats = map[string]bool{
	LogFormatText: true,
	LogFormatJSON: true,
}

// DefaultConfig returns a Config rooted at dataDir with every other field
// set to its default.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:   dataDir,
		DBName:    DefaultDBName,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. Empty log settings are accepted and mean the
// defaults.
func (c Config) Validate() error {
	if c.DBName == "" {
		return ErrDBNameEmpty
	}
	if filepath.Base(c.DBName) != c.DBName {
		return ErrDBNameHasPath
	}
	if c.LogLevel != "" && !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	if c.LogFormat != "" && !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	return nil
}

// DBPath returns the full path of the database file. An empty DataDir means
// the current directory.
func (c Config) DBPath() string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, c.DBName)
}
