package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/reconciliation-bot/internal/classify"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

func newRulesCommand(st *state) *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the classification rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd.Context(), cmd.OutOrStdout(), st, rulesPath)
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "override rules file to show ahead of the defaults")
	return cmd
}

func runRules(ctx context.Context, out io.Writer, st *state, rulesPath string) error {
	var overrides classify.RuleSet
	if rulesPath != "" {
		name, data, err := st.readInput(ctx, rulesPath)
		if err != nil {
			return err
		}
		overrides, err = classify.LoadOverrides(name, bytes.NewReader(data))
		if err != nil {
			return &userError{err: err, debug: st.cfg.Debug}
		}
	}

	o, d := classify.New(overrides).Rules()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	n := 0
	section := func(title string, rules classify.RuleSet) {
		if len(rules) == 0 {
			return
		}
		tw.Flush()
		color.New(color.Bold).Fprintln(out, title)
		for _, r := range rules {
			n++
			fmt.Fprintf(tw, "  %d.\t%s\t%s\n", n, r.Keyword, r.Account)
		}
	}
	section("Overrides", o)
	section("Defaults", d)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Unmatched vendors are classified as %q.\n", models.Uncategorized)
	return nil
}
