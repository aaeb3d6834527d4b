// Package cmd provides the CLI commands for force-cost.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"force-cost/core/ui"
	"force-cost/internal/config"
	"force-cost/internal/logging"
)

// Version is the tool version
const Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	noColor bool
	outDir  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "force-cost",
	Short: "Fit capital cost curves for sets of process components",
	Long: `force-cost merges process-simulation and cost-estimation extracts into
canonical components, groups them into sets, and fits a power-law cost
curve (cost = A * (capacity / reference)^X) for every set.

Examples:
  force-cost components --source HYSYS=./hysys --source APEA=./apea
  force-cost sets ./sets
  force-cost run --source HYSYS=./hysys --source APEA=./apea ./sets
  force-cost heron heron_input.xml`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.force-cost.yaml or $HOME/.force-cost.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")

	rootCmd.AddCommand(componentsCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(setsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(heronCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// newWriter returns a terminal writer on the command's output
func newWriter(cmd *cobra.Command) *ui.Writer {
	w := ui.NewWriter(cmd.OutOrStdout(), noColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// statusWriter is newWriter, moved to stderr when the summary format is
// machine-readable so stdout stays parseable
func statusWriter(cmd *cobra.Command, format string) *ui.Writer {
	if format == "" || format == "cli" {
		return newWriter(cmd)
	}
	w := ui.NewWriter(cmd.ErrOrStderr(), noColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// outputDir is the --out flag, or the configured output directory
func outputDir() string {
	if outDir != "" {
		return outDir
	}
	return config.Get().Output.Directory
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "force-cost version %s\n", Version)
	},
}
