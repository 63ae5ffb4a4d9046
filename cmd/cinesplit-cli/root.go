package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/shapedtime/cinesplit/internal/app"
	"github.com/shapedtime/cinesplit/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "cinesplit-cli",
		Short:         "Split movies into narrative episodes",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newSplitCommand(ctx))
	rootCmd.AddCommand(newAutocompleteCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))

	return rootCmd
}

// commandContext loads configuration and builds the pipeline once per
// invocation, only for commands that need it.
type commandContext struct {
	configFlag *string

	once sync.Once
	app  *app.App
	err  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureApp() (*app.App, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.err = err
			return
		}
		// Logs go to stderr so command output stays clean.
		slog.SetDefault(app.NewLogger(os.Stderr, cfg.Logging.Level))

		if err := cfg.EnsureDirectories(); err != nil {
			c.err = err
			return
		}
		c.app, c.err = app.New(cfg)
	})
	return c.app, c.err
}

func (c *commandContext) withApp(fn func(*app.App) error) error {
	a, err := c.ensureApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
