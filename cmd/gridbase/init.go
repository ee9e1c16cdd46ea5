package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/gridbase/internal/paths"
	"github.com/mesh-intelligence/gridbase/internal/store"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend  string            `yaml:"backend"`
	DSN      string            `yaml:"dsn,omitempty"`
	DataDir  string            `yaml:"data_dir,omitempty"`
	User     string            `yaml:"user,omitempty"`
	LogLevel string            `yaml:"log_level"`
	Page     map[string]int    `yaml:"page"`
	Generate types.BatchPolicy `yaml:"generate"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml and create the database schema",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			path := paths.ConfigFile(configDir)
			written, err := writeConfigIfMissing(path, a.defaultConfig())
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			conf, err := engineConfig(a.cfg, a.flags.dataDir)
			if err != nil {
				return err
			}
			backend := store.NewBackend()
			if err := backend.Attach(conf); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s\n", path)
			}
			fmt.Fprintf(out, "Initialized %s storage\n", conf.Backend)
			return nil
		},
	}
}

// defaultConfig captures the current flag and environment values so the
// written file reproduces this invocation.
func (a *app) defaultConfig() configFile {
	return configFile{
		Backend:  a.cfg.GetString(cfgKeyBackend),
		DSN:      a.cfg.GetString(cfgKeyDSN),
		DataDir:  a.flags.dataDir,
		User:     a.cfg.GetString(cfgKeyUser),
		LogLevel: a.cfg.GetString(cfgKeyLogLevel),
		Page:     map[string]int{"limit": a.cfg.GetInt(cfgKeyPageLimit)},
		Generate: types.BatchPolicy{
			ChunkSize:     a.cfg.GetInt(cfgKeyChunkSize),
			CellBatchSize: a.cfg.GetInt(cfgKeyCellBatchSize),
			ChunkTimeout:  a.cfg.GetDuration(cfgKeyChunkTimeout),
		},
	}
}

// writeConfigIfMissing creates path unless it already exists. It reports
// whether the file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
