package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"force-cost/internal/config"
	"force-cost/internal/logging"
)

var outputFormat string

// setsCmd fits cost curves for set files against stored components
var setsCmd = &cobra.Command{
	Use:   "sets <sets-dir>",
	Short: "Fit cost curves for every set file against stored components",
	Long: `Read the components written by the components command from
<out>/components, then process every set file (Setfile*.txt or *.hcl)
in <sets-dir>. Each fitted set is written to <out>/sets as
componentSet_<name> together with its diagnostic plot.

Examples:
  force-cost sets ./sets
  force-cost sets --format json ./sets`,
	Args: cobra.ExactArgs(1),
	RunE: runSets,
}

func init() {
	setsCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "summary format (cli, json, yaml)")
}

func runSets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	w := statusWriter(cmd, outputFormat)

	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	cat, err := catalogFromStore(ctx, w, store)
	if err != nil {
		return err
	}
	logging.Info("Loaded stored components")

	summary, unsaved, err := processSets(ctx, cfg, store, cat, args[0])
	if err != nil {
		return err
	}
	if err := render(w, cmd.OutOrStdout(), outputFormat, summary); err != nil {
		return err
	}
	return unsavedError(unsaved)
}

func unsavedError(n int) error {
	if n > 0 {
		return fmt.Errorf("outputs of %d fitted sets could not be written", n)
	}
	return nil
}
