package main

import (
	"github.com/spf13/cobra"

	"nupatch/internal/config"
	"nupatch/internal/logger"
	"nupatch/internal/paths"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "nupatch",
		Short:         "Patches Cursor's CLI and IDE agents so they recognise nushell",
		Long: `nupatch patches Cursor's CLI and IDE agents so they recognise nushell
and route execution through the naive terminal executor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Preview changes without applying")

	cmd.AddCommand(newPatchCmd(flags))
	cmd.AddCommand(newRevertCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newFixChecksumsCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// appContext bundles what every command needs: resolved install paths and a
// configured logger.
type appContext struct {
	Paths paths.Paths
	Log   *logger.Logger
}

func newAppContext(flags *rootFlags) (*appContext, error) {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		cfgPath = ""
	}

	cfg := &config.Config{}
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	if flags.verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: isInteractive()})
	if err != nil {
		return nil, err
	}

	return &appContext{
		Paths: paths.DetectWith(cfg.AppDir, cfg.CLIAgentDir),
		Log:   log,
	}, nil
}
