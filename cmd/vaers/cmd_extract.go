package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaersinsight/vaersinsight/pkg/extraction"
	"github.com/vaersinsight/vaersinsight/pkg/report"
)

var (
	extractFrom int
	extractTo   int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Load yearly VAERS file triads into the report table",
	Long: `Reads <year>VAERSDATA.csv, <year>VAERSSYMPTOMS.csv and <year>VAERSVAX.csv from
DATA_DIR for every year in the range, joins them on VAERS_ID, derives the
outcome label and appends the cleaned rows to the report table.

A year with missing files is skipped; a year that fails does not stop the run.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractFrom, "from", 0, "first year to load (default YEAR_START)")
	extractCmd.Flags().IntVar(&extractTo, "to", 0, "last year to load (default YEAR_END)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	from, to := cfg.YearStart, cfg.YearEnd
	if cmd.Flags().Changed("from") {
		from = extractFrom
	}
	if cmd.Flags().Changed("to") {
		to = extractTo
	}
	if from > to {
		return fmt.Errorf("--from %d is after --to %d", from, to)
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline, err := extraction.NewPipeline(extraction.Options{
		DataDir:        cfg.DataDir,
		Encoding:       cfg.FileEncoding,
		LegacyDateCopy: cfg.LegacyDateCopy,
	}, store, logger)
	if err != nil {
		return err
	}

	results := pipeline.Run(ctx, extraction.Years(from, to))
	report.Extraction(cmd.OutOrStdout(), results)

	failed := 0
	for _, r := range results {
		if r.Status == extraction.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d years failed", failed, len(results))
	}
	return nil
}
