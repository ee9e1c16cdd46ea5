package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/gridbase/internal/logging"
	"github.com/mesh-intelligence/gridbase/internal/paths"
	"github.com/mesh-intelligence/gridbase/internal/store"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// usageError marks bad arguments and flags.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// exitCode maps an error to the process exit code: 1 for mistakes the user
// can fix, 2 for everything else.
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		types.IsValidation(err),
		errors.Is(err, types.ErrAccessDenied),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown),
		errors.Is(err, types.ErrDSNRequired):
		return exitUserError
	default:
		return exitSysError
	}
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	dsn       string
	user      string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags rootFlags
	cfg   *viper.Viper
	log   *logrus.Logger
}

// newRootCmd creates the top-level "gridbase" command with global flags
// and all subcommands registered.
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gridbase",
		Short:         "A multi-tenant spreadsheet engine",
		Long:          "gridbase stores typed tables in a relational database and serves\nsorted, filtered, searchable pages of them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "SQLite data directory (default: $(CWD)/.gridbase)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: sqlite, postgres or mysql")
	pf.StringVar(&a.flags.dsn, "dsn", "", "connection string for postgres and mysql")
	pf.StringVarP(&a.flags.user, "user", "u", "", "id of the current user")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (default: warn)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newBaseCmd(a),
		newTableCmd(a),
		newColumnCmd(a),
		newRowCmd(a),
		newCellCmd(a),
		newPageCmd(a),
		newViewCmd(a),
		newGenerateCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newMCPCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		cfgKeyBackend:  "backend",
		cfgKeyDSN:      "dsn",
		cfgKeyUser:     "user",
		cfgKeyLogLevel: "log-level",
	} {
		if err := cfg.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	a.cfg = cfg

	log, err := logging.New(logging.Config{
		Level:  cfg.GetString(cfgKeyLogLevel),
		Format: cfg.GetString(cfgKeyLogFormat),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return usageError{err}
	}
	a.log = log
	return nil
}

// currentUser returns the configured user id.
func (a *app) currentUser() (string, error) {
	user := a.cfg.GetString(cfgKeyUser)
	if user == "" {
		return "", usagef("no user: set --user, %s_USER or user in %s", envPrefix, paths.ConfigFileName)
	}
	return user, nil
}

// withEngine attaches a backend for the duration of fn.
func (a *app) withEngine(cmd *cobra.Command, fn func(ctx context.Context, engine types.Engine, user string) error) error {
	user, err := a.currentUser()
	if err != nil {
		return err
	}
	conf, err := engineConfig(a.cfg, a.flags.dataDir)
	if err != nil {
		return err
	}
	backend := store.NewBackend()
	backend.SetLogger(logrus.NewEntry(a.log))
	if err := backend.Attach(conf); err != nil {
		return fmt.Errorf("attach backend: %w", err)
	}
	defer func() {
		if err := backend.Detach(); err != nil {
			a.log.WithError(err).Warn("detach backend")
		}
	}()
	return fn(cmd.Context(), backend, user)
}
