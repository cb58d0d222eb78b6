package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
)

type globalFlags struct {
	config    string
	envFile   string
	logLevel  string
	podcast   bool
	overwrite bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the .env file, then the TOML config, and applies the
// global flag overrides. The result is cached for the process.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := config.LoadEnvFile(c.flags.envFile); err != nil {
			c.configErr = err
			return
		}
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = level
		}
		if c.flags.overwrite {
			cfg.Pipeline.Overwrite = true
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTargets(cfg)...)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// mode resolves the content mode from the optional positional keyword and the
// --podcast flag.
func (c *commandContext) mode(args []string) (content.Mode, error) {
	mode := content.ModeConversation
	if len(args) > 0 {
		parsed, err := content.ParseMode(args[0])
		if err != nil {
			return "", err
		}
		mode = parsed
	}
	if c.flags.podcast {
		mode = content.ModePodcast
	}
	return mode, nil
}

// modeArgs accepts at most one positional argument naming the mode.
var modeArgs = cobra.MaximumNArgs(1)

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
