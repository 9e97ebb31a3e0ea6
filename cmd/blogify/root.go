package main

import (
	"github.com/goliatone/go-blogify/config"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

// flags are applied on top of file and environment values, only when set
type flags struct {
	configPath string
	env        string
	port       string
	dbDriver   string
	dbDSN      string
	logLevel   string
	logFormat  string
	debug      bool
}

func newRootCmd(version string) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "blogify",
		Short:        "Blogging REST backend",
		Long:         "blogify serves the authentication and blog APIs backed by a SQL database.",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "blogify version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&f.env, "env", "", "environment: development, production or test")
	pf.StringVar(&f.dbDriver, "db-driver", "", "database driver: sqlite or postgres")
	pf.StringVar(&f.dbDSN, "db-dsn", "", "database DSN")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	pf.BoolVar(&f.debug, "debug", false, "verbose logging and config dump")

	root.AddCommand(
		newServeCmd(f),
		newMigrateCmd(f),
		newVersionCmd(version),
	)

	return root
}

// load resolves the configuration for a command
func (f *flags) load(cmd *cobra.Command) (*config.Config, error) {
	fs := cmd.Flags()

	cfg, err := config.Load(f.configPath, nil)
	if err != nil {
		return nil, err
	}

	if fs.Changed("env") {
		cfg.Env = f.env
	}
	if fs.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fs.Changed("db-driver") {
		cfg.Database.Driver = f.dbDriver
	}
	if fs.Changed("db-dsn") {
		cfg.Database.DSN = f.dbDSN
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fs.Changed("debug") {
		cfg.Debug = f.debug
	}
	if cfg.Debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.SlogLogger {
	logger := logging.NewSlogLogger(logging.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: "blogify",
	})
	if cfg.Debug {
		logger.Debug("config: %s", print.MaybePrettyJSON(cfg.Redacted()))
	}
	return logger
}
