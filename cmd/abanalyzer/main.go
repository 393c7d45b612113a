package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"abanalyzer/adapters/excel"
	"abanalyzer/adapters/plot"
	"abanalyzer/adapters/postgres"
	"abanalyzer/app"
	"abanalyzer/domain/core"
	"abanalyzer/internal"
	"abanalyzer/internal/config"
	apperrors "abanalyzer/internal/errors"
	"abanalyzer/internal/report"
	"abanalyzer/ports"
)

type rootFlags struct {
	input string
	query string
	html  bool
	runID string
}

func main() {
	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "abanalyzer",
		Short: "Frequentist A/B-test analysis with error-bar charts",
		Long: `Analyzes a binomial metric broken down by experiment variation and a
secondary category dimension. Input rows need the category column plus
p, population and variation, from a .csv/.xlsx file or a warehouse query.`,
	}
	rootCmd.PersistentFlags().StringVar(&flags.input, "input", "", "path to a .csv or .xlsx observations file")
	rootCmd.PersistentFlags().StringVar(&flags.query, "query", "", "warehouse SQL producing observation rows (needs WAREHOUSE_URL)")
	rootCmd.PersistentFlags().BoolVar(&flags.html, "html", false, "also render the run report to HTML")
	rootCmd.PersistentFlags().StringVar(&flags.runID, "run-id", "", "pin the run ID used in artifact names instead of generating one")

	rootCmd.AddCommand(
		newChangeCmd(flags),
		newMagnitudeCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", apperrors.GetCode(err), err)
		os.Exit(1)
	}
}

func newChangeCmd(flags *rootFlags) *cobra.Command {
	var yMin, yMax float64
	cmd := &cobra.Command{
		Use:   "change [title]",
		Short: "Estimate the per-category difference between the two variations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(flags)
			if err != nil {
				return err
			}
			var lo, hi *float64
			if cmd.Flags().Changed("y-min") {
				lo = &yMin
			}
			if cmd.Flags().Changed("y-max") {
				hi = &yMax
			}
			result, err := service.RunChange(cmd.Context(), args[0], lo, hi)
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().Float64Var(&yMin, "y-min", 0, "lower y-axis bound for the chart")
	cmd.Flags().Float64Var(&yMax, "y-max", 0, "upper y-axis bound for the chart")
	return cmd
}

func newMagnitudeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "magnitude [title]",
		Short: "Estimate the raw per-category rate in each variation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(flags)
			if err != nil {
				return err
			}
			result, err := service.RunMagnitude(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
}

func buildService(flags *rootFlags) (*app.AnalysisService, error) {
	cfg, err := config.LoadAnalysis()
	if err != nil {
		return nil, err
	}
	paths := config.LoadPaths()

	reader, err := buildReader(flags, cfg)
	if err != nil {
		return nil, err
	}

	reports := report.NewWriter(paths.OutputDir, flags.html)
	service := app.NewAnalysisService(reader, plot.NewRenderer(), reports, cfg, paths)
	if flags.runID != "" {
		runID, err := core.ParseRunID(flags.runID)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("bad --run-id: %v", err))
		}
		service = service.WithRunID(runID)
	}
	return service, nil
}

func buildReader(flags *rootFlags, cfg *config.AnalysisConfig) (ports.ObservationReader, error) {
	switch {
	case flags.input != "" && flags.query != "":
		return nil, fmt.Errorf("--input and --query are mutually exclusive")
	case flags.input != "":
		return excel.NewObservationReader(flags.input, cfg.CategoryColumn), nil
	case flags.query != "":
		warehouse, err := config.LoadWarehouse()
		if err != nil {
			return nil, err
		}
		db, err := sqlx.Connect("postgres", warehouse.URL)
		if err != nil {
			return nil, apperrors.DatabaseError(fmt.Sprintf("failed to connect to warehouse: %v", err))
		}
		return postgres.NewObservationStore(db, flags.query, cfg.CategoryColumn), nil
	default:
		return nil, fmt.Errorf("either --input or --query is required")
	}
}

func printResult(result *app.AnalysisResult) {
	log := internal.DefaultLogger
	log.Info("run %s analyzed %d categories", result.RunID, result.Categories)
	if result.ChartPath != "" {
		log.Info("chart: %s", result.ChartPath)
	}
	log.Info("report: %s", result.ReportPath)
	if result.HTMLPath != "" {
		log.Info("html report: %s", result.HTMLPath)
	}
}
