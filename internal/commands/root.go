package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/insightdelivered/reconciliation-bot/internal/buildinfo"
	"github.com/insightdelivered/reconciliation-bot/internal/config"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/storage"
)

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"log.level":             "log-level",
	"log.json":              "log-json",
	"debug":                 "debug",
	"include_uncategorized": "include-uncategorized",
	"output.format":         "format",
	"server.addr":           "addr",
}

// state is shared by all subcommands of one invocation.
type state struct {
	configPath string
	v          *viper.Viper
	cfg        *config.Config
	log        zerolog.Logger

	// openStorage returns a gs:// client and its cleanup.
	openStorage func(ctx context.Context) (storage.Client, func(), error)
}

func openGCS(ctx context.Context) (storage.Client, func(), error) {
	g, err := storage.NewGCS(ctx)
	if err != nil {
		return nil, nil, err
	}
	return g, func() { _ = g.Close() }, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&state{openStorage: openGCS})
}

func newRootCommand(st *state) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "reconbot",
		Short:   "Turn bank statements into categorized debit and credit ledgers",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit JSON logs")

	rootCmd.AddCommand(newReconcileCommand(st))
	rootCmd.AddCommand(newServeCommand(st))
	rootCmd.AddCommand(newRulesCommand(st))

	return rootCmd
}

func (st *state) load(cmd *cobra.Command) error {
	st.v = config.New()
	if err := config.BindFlags(st.v, cmd.Flags(), flagKeys); err != nil {
		return err
	}
	cfg, err := config.Load(st.v, st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	st.log = logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Out: cmd.ErrOrStderr()})
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		printError(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	var ue *userError
	msg := err.Error()
	if errors.As(err, &ue) {
		msg = ue.display()
	}
	color.New(color.FgRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, msg)
}
