package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/acheong08/depguardian/internal/config"
	"github.com/acheong08/depguardian/internal/store"
)

// app carries state shared by all commands
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "depguardian",
		Short: "Submit dependency manifests for risk analysis and browse the reports",
		Long: `depguardian uploads a package.json or requirements.txt to the analysis
backend, follows its pipeline stages live and keeps every completed report.

Reports are stored locally (or in Redis) and can be listed, filtered and
drilled into without contacting the backend again.`,
		Example: `  # Analyze a manifest
  depguardian submit package.json

  # High risk packages of a report
  depguardian reports show <id> --risk High

  # Expression filter
  depguardian reports show <id> --where 'status == "Critical update" || "Secure" in vulns'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default: depguardian.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newSubmitCmd(a), newReportsCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a.store, err = cfg.OpenStore(cmd.Context(), a.logger)
	return err
}

func (a *app) teardown() error {
	if closer, ok := a.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
