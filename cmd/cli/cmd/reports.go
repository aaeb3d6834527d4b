package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"force-cost/adapters/storage"
	"force-cost/internal/config"
)

var (
	reportsSet        string
	reportsSince      time.Duration
	reportsLimit      int
	reportsFormat     string
	reportsShowFormat string
)

// reportsCmd inspects stored set reports
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored set reports",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the set reports under <out>/sets",
	Long: `List the set reports written by the sets and run commands.

Examples:
  force-cost reports list
  force-cost reports list --set Pumps
  force-cost reports list --since 24h --limit 5 --format json`,
	Args: cobra.NoArgs,
	RunE: runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored set report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

func init() {
	reportsListCmd.Flags().StringVar(&reportsSet, "set", "", "only reports of this set")
	reportsListCmd.Flags().DurationVar(&reportsSince, "since", 0, "only reports written within this long (e.g. 24h)")
	reportsListCmd.Flags().IntVar(&reportsLimit, "limit", 0, "maximum number of reports (0 for all)")
	reportsListCmd.Flags().StringVarP(&reportsFormat, "format", "f", "cli", "output format (cli, json, yaml)")
	reportsShowCmd.Flags().StringVarP(&reportsShowFormat, "format", "f", "yaml", "output format (json, yaml)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
}

func runReportsList(cmd *cobra.Command, args []string) error {
	store, err := openStore(config.Get(), false)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := &storage.ListFilter{SetName: reportsSet, Limit: reportsLimit}
	if reportsSince > 0 {
		filter.Since = time.Now().UTC().Add(-reportsSince)
	}
	reports, err := store.ListReports(cmd.Context(), filter)
	if err != nil {
		return err
	}

	switch format := strings.ToLower(reportsFormat); format {
	case "cli", "":
		w := newWriter(cmd)
		if len(reports) == 0 {
			w.Warning("no set reports found in %s", outputDir())
			return nil
		}
		w.Header("Set Reports")
		table := w.NewTable("ID", "Set", "Members", "Scaling", "MAPE", "Created")
		for _, r := range reports {
			table.AddRow(
				r.ID,
				r.SetName,
				fmt.Sprintf("%d", len(r.IncludedComponents)),
				fmt.Sprintf("%g", r.ScalingFactor),
				fmt.Sprintf("%.2f %%", r.MeanAbsolutePercentageError),
				r.CreatedAt.Local().Format(time.DateTime),
			)
		}
		table.Render()
		return nil
	default:
		if reports == nil {
			reports = []*storage.StoredReport{}
		}
		data, err := storage.Encode(reports, storage.Format(format))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(config.Get(), false)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := store.GetReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	data, err := storage.Encode(report, storage.Format(strings.ToLower(reportsShowFormat)))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
