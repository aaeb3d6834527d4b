package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"force-cost/core/determinism"
	"force-cost/internal/config"
)

var sourceDirs map[string]string

// componentsCmd builds canonical components from extractor output
var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "Build canonical components from extractor output",
	Long: `Read every extract file (JSON or YAML) from one directory per source,
merge the records that share a component ID, and write one file per
component under <out>/components.

Examples:
  force-cost components --source HYSYS=./hysys --source APEA=./apea
  force-cost components -s HYSYS=./hysys -s APEA=./apea --out ./force`,
	Args: cobra.NoArgs,
	RunE: runComponents,
}

func init() {
	componentsCmd.Flags().StringToStringVarP(&sourceDirs, "source", "s", nil, "extract directory per source label (LABEL=DIR)")
}

func runComponents(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	w := newWriter(cmd)

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

	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := saveComponents(ctx, w, store, cat); err != nil {
		return fmt.Errorf("saving components: %w", err)
	}

	stats := cat.Stats()
	w.Header("Components")
	table := w.NewTable("Category", "Components")
	determinism.RangeMapSorted(stats.ByCategory, func(category string, n int) bool {
		table.AddRow(category, fmt.Sprintf("%d", n))
		return true
	})
	table.Render()
	w.Println("")
	w.Success("%d components written to %s (%d complete, %d skipped)", stats.Total, outputDir(), stats.Complete, len(skipped))
	return nil
}
