package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"studytrack/internal/apiclient"
	"studytrack/internal/config"
	"studytrack/internal/database"
	"studytrack/internal/localstore"
	"studytrack/internal/logger"
	"studytrack/internal/timer"
)

type rootOptions struct {
	configPath string
	apiURL     string
	dbPath     string
	verbose    bool
}

// app is everything a command needs, opened per invocation.
type app struct {
	cfg    config.CLIConfig
	db     *database.LocalDB
	store  *localstore.SQLiteStore
	client *apiclient.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "studyctl",
		Short:         "Track study time from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Configure(os.Stderr, opts.verbose)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultCLIConfigPath(), "config file")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "local database path (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newTimerCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newCoursesCmd(opts))
	root.AddCommand(newPaletteCmd())
	root.AddCommand(newConfigCmd(opts))
	return root
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.LoadCLI(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}

	db, err := database.OpenLocal(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	store := localstore.NewSQLiteStore(db.DB)
	logger.Debug("opened local store", "path", db.Path(), "api", cfg.APIURL)

	return &app{
		cfg:    cfg,
		db:     db,
		store:  store,
		client: apiclient.New(cfg.APIURL, store),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		logger.Warn("failed to close local database", "error", err)
	}
}

// engine opens the timer for whoever is logged in. With nobody logged in the
// engine still opens but every transition fails as unauthenticated.
func (a *app) engine() (*timer.Engine, error) {
	identity, err := a.client.Identity()
	if err != nil {
		return nil, err
	}
	return timer.New(identity, a.store, timer.NewStoreAdapter(a.client))
}

func withApp(opts *rootOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
