package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"force-cost/internal/config"
)

var dryRun bool

// runCmd goes from extractor output to fitted sets in one step
var runCmd = &cobra.Command{
	Use:   "run <sets-dir>",
	Short: "Build components and fit every set in one step",
	Long: `Equivalent to running components and then sets: extracts are merged
into components, the components are written, and every set file in
<sets-dir> is fitted against them.

With --dry-run everything is kept in memory: the summary is printed but
nothing is written to the output directory.

Examples:
  force-cost run --source HYSYS=./hysys --source APEA=./apea ./sets
  force-cost run -s HYSYS=./hysys -s APEA=./apea --format yaml ./sets
  force-cost run -s HYSYS=./hysys -s APEA=./apea --dry-run ./sets`,
	Args: cobra.ExactArgs(1),
	RunE: runAll,
}

func init() {
	runCmd.Flags().StringToStringVarP(&sourceDirs, "source", "s", nil, "extract directory per source label (LABEL=DIR)")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "summary format (cli, json, yaml)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fit the sets without writing components, reports or plots")
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	w := statusWriter(cmd, outputFormat)

	sources, err := loadSources(cfg.Schema, sourceDirs)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	cat, skipped := eng.BuildCatalog(sources...)
	for _, e := range skipped {
		w.Warning("%v", e)
	}
	if cat.Len() == 0 {
		return fmt.Errorf("no components could be built")
	}

	store, err := openStore(cfg, dryRun)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := saveComponents(ctx, w, store, cat); err != nil {
		return fmt.Errorf("saving components: %w", err)
	}

	summary, unsaved, err := processSets(ctx, cfg, store, cat, args[0])
	if err != nil {
		return err
	}
	if err := render(w, cmd.OutOrStdout(), outputFormat, summary); err != nil {
		return err
	}
	return unsavedError(unsaved)
}
