package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pageaudit/internal/config"
	"pageaudit/internal/logging"
)

// commandContext loads configuration and the logger once per invocation.
type commandContext struct {
	configFlag string
	v          *viper.Viper

	once   sync.Once
	config *config.Config
	logger *slog.Logger
	err    error
}

func newCommandContext() *commandContext {
	return &commandContext{v: viper.New()}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.LoadWith(c.v, strings.TrimSpace(c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			c.err = fmt.Errorf("build logger: %w", err)
			return
		}
		c.config, c.logger = cfg, logger
	})
	return c.config, c.err
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

const configKeyAnnotation = "pageaudit/config-key"

// bindFlag marks a flag of cmd as the override for a config key. Only the
// executing command's flags are bound, so commands may share keys.
func (c *commandContext) bindFlag(cmd *cobra.Command, key, flag string) {
	if err := cmd.Flags().SetAnnotation(flag, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// bindCommandFlags binds the annotated flags of cmd into the config. Set
// flags win over file and environment values.
func (c *commandContext) bindCommandFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if err != nil || len(keys) == 0 {
			return
		}
		err = c.v.BindPFlag(keys[0], f)
	})
	return err
}

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:   "pageaudit",
		Short: "Audit a web page for performance, visibility, security, accessibility and trust",
		Long: `pageaudit loads a page in headless Chrome, runs a fixed set of analyzers
against it and scores the findings.

Run a single audit with "pageaudit audit <url>", or start the HTTP API and
background workers with "pageaudit serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.bindCommandFlags(cmd); err != nil {
				return err
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (default .pageauditrc.{yaml,json,toml})")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.String("log-format", "console", "Log format (console|json)")
	for key, flag := range map[string]string{"log.level": "log-level", "log.format": "log-format"} {
		if err := ctx.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	return rootCmd
}
