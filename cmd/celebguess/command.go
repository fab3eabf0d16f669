package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/m3rciful/celebguess/bot"
	"github.com/m3rciful/celebguess/core/buildinfo"
	corecmd "github.com/m3rciful/celebguess/core/cmd"
	coreconfig "github.com/m3rciful/celebguess/core/config"
)

const (
	configEnvVar      = "CELEBGUESS_CONFIG"
	defaultConfigPath = "config.yaml"
)

type runFunc func(opts corecmd.Options) error

func newCmd(run runFunc) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "celebguess",
		Short:         "Telegram bot that plays a celebrity guessing game.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       buildinfo.Summary(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(runnerOptions(configPath))
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&configPath, "config", "c", "", fmt.Sprintf("path to the YAML config (env: %s, default %s)", configEnvVar, defaultConfigPath))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("celebguess {{.Version}}\n")

	return cmd
}

func runBot(opts corecmd.Options) error {
	return corecmd.Run(opts)
}

func runnerOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig:        loadConfig,
		Bootstrap:         bootstrap,
	}
}

func loadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*coreconfig.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	app, err := bot.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}
