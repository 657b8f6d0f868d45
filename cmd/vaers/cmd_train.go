package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/report"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the outcome model and save it to MODEL_PATH",
	Long: `Reads SEX, AGE_YRS, VAX_TYPE, VAX_DOSE_SERIES and OUTCOME from the report
table, holds out TEST_SIZE of the rows, fits a one-hot encoder and a
TREE_COUNT-tree random forest on the rest, and writes the artifact.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the saved model on the hold-out rows",
	Args:  cobra.NoArgs,
	RunE:  runEvaluate,
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	artifact, err := mlmodel.NewService(store, trainerOptions(), logger).Train(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Model %s saved to %s (%d training rows, classes %v)\n",
		artifact.ID, cfg.ModelPath, artifact.TrainingRows, artifact.Pipeline.Classes)
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	artifact, err := mlmodel.LoadArtifact(cfg.ModelPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	eval, err := mlmodel.NewService(store, trainerOptions(), logger).Evaluate(ctx, artifact)
	if err != nil {
		return err
	}
	logger.Info("Model evaluated",
		zap.String("model_id", artifact.ID),
		zap.Float64("accuracy", eval.Accuracy),
		zap.Int("test_rows", eval.TestRows))
	report.Evaluation(cmd.OutOrStdout(), eval)
	return nil
}
