package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/vaersinsight/vaersinsight/pkg/extraction"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

func TestDashboard(t *testing.T) {
	var buf bytes.Buffer
	Dashboard(&buf, &models.Dashboard{
		Filters:  models.DefaultFilters(),
		Outcomes: []models.OutcomeCount{{Outcome: "Death", Count: 3}},
		VaxTypes: []models.VaxTypeCount{{VaxType: "COVID19", Count: 3}},
		OverTime: []models.YearVaxCount{
			{Year: 2020, VaxType: "COVID19", Count: 1},
			{Year: 2021, VaxType: "COVID19", Count: 2},
			{Year: 2021, VaxType: "FLU3", Count: 5},
		},
		TopCombos: []models.ComboCount{{Label: "COVID19 - Headache", Count: 2}},
	})

	out := buf.String()
	assert.Contains(t, out, "sex=All")
	assert.Contains(t, out, "Death")
	assert.Contains(t, out, "COVID19 - Headache")
	assert.Contains(t, out, "reports per year, 2020-2021")
	assert.Contains(t, out, "(no matching reports)")
}

func TestYearlyChartSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	YearlyChart(&buf, []models.YearVaxCount{{Year: 2021, VaxType: "FLU3", Count: 4}})
	assert.Contains(t, buf.String(), "2021")
	assert.NotContains(t, buf.String(), "reports per year")
}

func TestPrediction(t *testing.T) {
	var buf bytes.Buffer
	Prediction(&buf, &models.PredictionResult{
		Predicted:  "ER Visit",
		Confidence: 0.625,
		Probabilities: []models.ClassProbability{
			{Class: "ER Visit", Probability: 0.625},
			{Class: "Death", Probability: 0.375},
		},
	})
	assert.Contains(t, buf.String(), "Predicted Outcome: ER Visit")
	assert.Contains(t, buf.String(), "62.50%")
	assert.Contains(t, buf.String(), "37.50%")
}

func TestEvaluation(t *testing.T) {
	var buf bytes.Buffer
	Evaluation(&buf, &mlmodel.Evaluation{
		Classes:   []string{"A", "B"},
		TestRows:  4,
		Accuracy:  0.75,
		Precision: []float64{1, 0.5},
		Recall:    []float64{0.5, 1},
		Confusion: mat.NewDense(2, 2, []float64{1, 1, 0, 2}),
	})
	assert.Contains(t, buf.String(), "Accuracy: 75.00%")
}

func TestPreviewAndExtraction(t *testing.T) {
	var buf bytes.Buffer
	Preview(&buf, &models.Table{Columns: []string{"VAERS_ID", "DATEDIED"}, Rows: [][]any{{"1", nil}}})
	assert.Contains(t, buf.String(), "Data preview (1 rows)")

	buf.Reset()
	Extraction(&buf, []extraction.YearResult{
		{Year: 2020, Status: extraction.StatusSkipped, Err: extraction.ErrMissingFiles},
		{Year: 2021, Status: extraction.StatusIngested, Rows: 12},
		{Year: 2022, Status: extraction.StatusFailed, Err: errors.New("broken file")},
	})
	out := buf.String()
	assert.Contains(t, out, "Extraction (12 rows stored)")
	assert.Contains(t, out, "broken file")
	assert.Contains(t, out, "skipped")
}
