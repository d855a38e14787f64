package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/pdfchat/internal/api"
	"github.com/jwulff/pdfchat/internal/config"
	"github.com/jwulff/pdfchat/internal/db"
	"github.com/jwulff/pdfchat/internal/logging"
)

// cli holds flags and the collaborators built from them before any
// subcommand runs.
type cli struct {
	configPath string
	url        string
	verbose    bool

	cfg    *config.Config
	log    *zap.Logger
	store  *db.Store
	client *api.Client
}

func newRootCmd() *cobra.Command {
	return (&cli{}).command()
}

func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfchat",
		Short: "Chat with your PDFs from the terminal",
		Long: `pdfchat talks to a PDF chat server: upload documents, pick one or all
of them, and ask questions. Run without arguments for the interactive UI.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) { c.teardown() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&c.url, "url", "", "chat server base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.listCmd(),
		c.uploadCmd(),
		c.askCmd(),
		c.historyCmd(),
		c.removeCmd(),
		c.removeAllCmd(),
		c.resetCmd(),
	)
	c.releaseAfterRun(root)
	return root
}

// releaseAfterRun wraps every RunE so teardown happens on error too; cobra
// skips post-run hooks when RunE fails.
func (c *cli) releaseAfterRun(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer c.teardown()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		c.releaseAfterRun(sub)
	}
}

// setup loads configuration and builds the logger, store and client. On
// failure everything built so far is released.
func (c *cli) setup() (err error) {
	defer func() {
		if err != nil {
			c.teardown()
		}
	}()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.url != "" {
		cfg.Server.BaseURL = c.url
	}
	if c.verbose {
		cfg.Log.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	log, err := logging.New(logging.Options{
		File:       cfg.Log.File,
		Verbose:    cfg.Log.Verbose,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	c.log = log

	store, err := db.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	c.store = store

	timeout, _ := cfg.Timeout()
	client, err := api.NewClient(cfg.Server.BaseURL,
		api.WithLogger(logging.Module(log, "api")),
		api.WithCookieStore(store),
		api.WithTimeout(timeout),
	)
	if err != nil {
		return err
	}
	c.client = client

	log.Info("starting", zap.String("server", cfg.Server.BaseURL), zap.String("db", cfg.Storage.DBPath))
	return nil
}

// teardown closes the store and flushes the logger. It is safe to call
// more than once.
func (c *cli) teardown() {
	if c.store != nil {
		if err := c.store.Close(); err != nil && c.log != nil {
			c.log.Warn("close store", zap.Error(err))
		}
		c.store = nil
	}
	if c.log != nil {
		_ = c.log.Sync()
		c.log = nil
	}
	c.client = nil
}
