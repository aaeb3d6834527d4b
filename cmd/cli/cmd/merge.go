package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"force-cost/adapters/extract"
	"force-cost/adapters/storage"
	"force-cost/core/merge"
	"force-cost/core/types"
	"force-cost/internal/config"
)

var (
	mergeOutput string
	mergeFormat string
)

// mergeCmd flattens several files describing one component
var mergeCmd = &cobra.Command{
	Use:   "merge <file>...",
	Short: "Merge extract files describing one component into one record",
	Long: `Merge the records of several extract files that describe the same
component. Every name field must agree; later files win on other fields.

Examples:
  force-cost merge pump_hysys.json pump_apea.yaml
  force-cost merge --format yaml -O pump.yaml pump_*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "O", "", "write the merged record to a file instead of stdout")
	mergeCmd.Flags().StringVarP(&mergeFormat, "format", "f", "json", "record format (json, yaml)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	var records []types.SourceRecord
	for _, path := range args {
		label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		recs, err := extract.LoadFile(label, path)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}

	merged, err := merge.Identity(records, merge.Options{
		Marker:     cfg.Schema.NameMarker,
		NameField:  cfg.Schema.NameField,
		Identifier: strings.Join(args, ", "),
	})
	if err != nil {
		return err
	}

	data, err := storage.Encode(merged, storage.Format(mergeFormat))
	if err != nil {
		return err
	}
	if !strings.HasSuffix(string(data), "\n") {
		data = append(data, '\n')
	}
	if mergeOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(mergeOutput), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(mergeOutput, data, 0644); err != nil {
		return err
	}
	newWriter(cmd).Success("merged %d records for %q into %s", len(records), merged.Name, mergeOutput)
	return nil
}
