package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/gridbase/internal/paths"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "GRIDBASE"

	cfgKeyBackend       = "backend"
	cfgKeyDSN           = "dsn"
	cfgKeyDataDir       = "data_dir"
	cfgKeyUser          = "user"
	cfgKeyLogLevel      = "log_level"
	cfgKeyLogFormat     = "log_format"
	cfgKeyStrictNumbers = "strict_numbers"
	cfgKeyPageLimit     = "page.limit"
	cfgKeyChunkSize     = "generate.chunk_size"
	cfgKeyCellBatchSize = "generate.cell_batch_size"
	cfgKeyChunkTimeout  = "generate.chunk_timeout"
)

// loadConfig reads config.yaml from configDir with GRIDBASE_* environment
// overrides. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetDefault(cfgKeyPageLimit, types.DefaultPageSize)
	v.SetDefault(cfgKeyChunkSize, types.DefaultChunkSize)
	v.SetDefault(cfgKeyCellBatchSize, types.DefaultCellBatchSize)
	v.SetDefault(cfgKeyChunkTimeout, types.DefaultChunkTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// engineConfig turns the loaded settings into a validated types.Config.
func engineConfig(v *viper.Viper, dataDirFlag string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	conf := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		DSN:           v.GetString(cfgKeyDSN),
		StrictNumbers: v.GetBool(cfgKeyStrictNumbers),
		Generate: types.BatchPolicy{
			ChunkSize:     v.GetInt(cfgKeyChunkSize),
			CellBatchSize: v.GetInt(cfgKeyCellBatchSize),
			ChunkTimeout:  v.GetDuration(cfgKeyChunkTimeout),
		},
	}
	if err := conf.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}
