package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/keeper/internal/paths"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "KEEPER"

	cfgKeyDataDir    = "data_dir"
	cfgKeyDBName     = "db_name"
	cfgKeyLogLevel   = "log_level"
	cfgKeyLogFormat  = "log_format"
	cfgKeyAllowReset = "allow_reset"
)

var errInvalidConfig = errors.New("invalid configuration")

// configFile is the structure written to config.yaml on first run.
type configFile struct {
	DataDir    string `yaml:"data_dir,omitempty"`
	DBName     string `yaml:"db_name"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	AllowReset bool   `yaml:"allow_reset"`
}

// loadConfig resolves the config directory, writes a default config.yaml
// there if none exists, and reads it with viper. KEEPER_* environment
// variables override file values, except data_dir which follows the
// flag > config > env > default chain of paths.ResolveDataDir.
func loadConfig(configDirFlag, dataDirFlag string) (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(configDirFlag)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return types.Config{}, fmt.Errorf("write config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDBName, types.DefaultDBName)
	v.SetDefault(cfgKeyLogLevel, types.DefaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, types.DefaultLogFormat)
	v.SetDefault(cfgKeyAllowReset, false)
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyDBName, cfgKeyLogLevel, cfgKeyLogFormat, cfgKeyAllowReset} {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("%w: read config: %w", errInvalidConfig, err)
		}
	}

	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		DataDir:    dataDir,
		DBName:     v.GetString(cfgKeyDBName),
		LogLevel:   v.GetString(cfgKeyLogLevel),
		LogFormat:  v.GetString(cfgKeyLogFormat),
		AllowReset: v.GetBool(cfgKeyAllowReset),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		DBName:    types.DefaultDBName,
		LogLevel:  types.DefaultLogLevel,
		LogFormat: types.DefaultLogFormat,
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
