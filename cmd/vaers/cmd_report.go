package main

import (
	"github.com/spf13/cobra"

	"github.com/vaersinsight/vaersinsight/pkg/dashboard"
	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
	"github.com/vaersinsight/vaersinsight/pkg/report"
)

var (
	reportFilters = models.DefaultFilters()
	reportPreview bool

	predictInput models.PredictionInput
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the dashboard views in the terminal",
	Long: `Applies the filters to the report table and prints the outcome distribution,
top vaccine types, reports over time, top vaccine/symptom pairs, top symptoms
and serious outcomes by age group.

Example:
  vaers report --sex F --age-min 18 --age-max 64 --year-min 2021`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the outcome of a single report",
	Long: `Loads the model from MODEL_PATH and prints the predicted outcome with its
class probabilities.

Example:
  vaers predict --sex F --age 45 --vax-type COVID19 --dose 2`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	flags := reportCmd.Flags()
	flags.StringVar(&reportFilters.Sex, "sex", reportFilters.Sex, "sex filter (All, F, M, U)")
	flags.StringVar(&reportFilters.Outcome, "outcome", reportFilters.Outcome, "outcome filter (All or an outcome label)")
	flags.IntVar(&reportFilters.AgeMin, "age-min", reportFilters.AgeMin, "lowest age in years")
	flags.IntVar(&reportFilters.AgeMax, "age-max", reportFilters.AgeMax, "highest age in years")
	flags.IntVar(&reportFilters.YearMin, "year-min", reportFilters.YearMin, "first year")
	flags.IntVar(&reportFilters.YearMax, "year-max", reportFilters.YearMax, "last year")
	flags.BoolVar(&reportPreview, "preview", false, "also print the first matching rows")

	flags = predictCmd.Flags()
	flags.StringVar(&predictInput.Sex, "sex", "", "sex (F, M, U)")
	flags.IntVar(&predictInput.AgeYears, "age", 0, "age in years")
	flags.StringVar(&predictInput.VaxType, "vax-type", "", "vaccine type")
	flags.IntVar(&predictInput.DoseSeries, "dose", models.DoseLowerBound, "dose number")
	_ = predictCmd.MarkFlagRequired("sex")
	_ = predictCmd.MarkFlagRequired("age")
	_ = predictCmd.MarkFlagRequired("vax-type")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := dashboard.NewService(store, mlmodel.NewCache(cfg.ModelPath, logger), logger)
	d, err := svc.Dashboard(ctx, reportFilters)
	if err != nil {
		return err
	}
	report.Dashboard(cmd.OutOrStdout(), d)

	if reportPreview {
		t, err := svc.Preview(ctx, reportFilters, factstore.PreviewLimit)
		if err != nil {
			return err
		}
		report.Preview(cmd.OutOrStdout(), t)
	}
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	if err := predictInput.Validate(); err != nil {
		return err
	}
	artifact, err := mlmodel.LoadArtifact(cfg.ModelPath)
	if err != nil {
		return err
	}
	result, err := artifact.Pipeline.PredictInput(predictInput)
	if err != nil {
		return err
	}
	report.Prediction(cmd.OutOrStdout(), result)
	return nil
}
