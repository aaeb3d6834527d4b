package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"force-cost/adapters/heron"
	"force-cost/adapters/storage"
	"force-cost/core/types"
	"force-cost/internal/config"
)

var (
	heronOutput   string
	heronSets     []string
	heronResource string
	heronLifetime int
)

// heronCmd pushes stored set reports into a HERON input file
var heronCmd = &cobra.Command{
	Use:   "heron <heron-input.xml>",
	Short: "Write fitted set cost models into a HERON input file",
	Long: `Read the set reports stored under <out>/sets and write each one into the
<Components> section of a HERON input file. Components named after a set
get their capex cash flow updated; other sets are added as new components.
The input is left untouched and the result is written to new_<input>.

Examples:
  force-cost heron heron_input.xml
  force-cost heron --set Pumps --set Turbines heron_input.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runHeron,
}

func init() {
	defaults := heron.DefaultOptions()
	heronCmd.Flags().StringVarP(&heronOutput, "output", "O", "", "output file (default new_<input> beside the input)")
	heronCmd.Flags().StringSliceVar(&heronSets, "set", nil, "only export these sets (repeatable)")
	heronCmd.Flags().StringVar(&heronResource, "resource", defaults.Resource, "resource produced by new components")
	heronCmd.Flags().IntVar(&heronLifetime, "lifetime", defaults.Lifetime, "economic lifetime of new components in years")
}

func runHeron(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	w := newWriter(cmd)

	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	stored, err := store.ListReports(ctx, nil)
	if err != nil {
		return err
	}
	reports, err := selectReports(stored, heronSets)
	if err != nil {
		return err
	}

	root, err := heron.Load(args[0])
	if err != nil {
		return err
	}
	res, err := heron.Merge(root, reports, heron.Options{Resource: heronResource, Lifetime: heronLifetime})
	if err != nil {
		return err
	}

	path := heronOutput
	if path == "" {
		path = heron.OutputPath(args[0])
	}
	if err := heron.Save(root, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	for _, name := range res.Updated {
		w.Info("updated %s", name)
	}
	for _, name := range res.Created {
		w.Info("added %s", name)
	}
	w.Success("%d components updated, %d added: %s", len(res.Updated), len(res.Created), path)
	return nil
}

// selectReports keeps the reports of the named sets, in the order given, or
// every report when no names are given.
func selectReports(stored []*storage.StoredReport, names []string) ([]types.SetReport, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("no set reports stored; run the sets command first")
	}
	if len(names) == 0 {
		reports := make([]types.SetReport, len(stored))
		for i, r := range stored {
			reports[i] = r.SetReport
		}
		return reports, nil
	}

	bySet := make(map[string]*storage.StoredReport, len(stored))
	for _, r := range stored {
		bySet[r.SetName] = r
	}
	var (
		reports []types.SetReport
		missing []string
	)
	for _, name := range names {
		r, ok := bySet[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		reports = append(reports, r.SetReport)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no stored report for sets: %s", strings.Join(missing, ", "))
	}
	return reports, nil
}
