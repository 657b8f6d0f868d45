package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

func seededStore(t *testing.T) *factstore.Store {
	t.Helper()
	ctx := context.Background()
	store, err := factstore.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "vaers.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sexes := []string{"F", "M", "U"}
	vaxTypes := []string{"COVID19", "FLU3"}
	var reports []models.Report
	for i := 0; i < 120; i++ {
		age := float64(i % 90)
		recv := time.Date(2020+i%3, 1, 15, 0, 0, 0, 0, time.UTC)
		r := models.Report{
			VAERSID:       fmt.Sprintf("%07d", i),
			ReceivedDate:  &recv,
			AgeYears:      &age,
			Sex:           sexes[i%3],
			VaxType:       vaxTypes[i%2],
			VaxDoseSeries: fmt.Sprintf("%d", 1+i%2),
			Symptom1:      "Headache",
			Year:          2020 + i%3,
		}
		if age > 60 {
			r.Hospital = "Y"
		}
		r.Outcome = models.DeriveOutcome(r.Hospital, r.ERVisit, r.EREDVisit, r.Died)
		reports = append(reports, r)
	}
	_, err = store.Append(ctx, reports)
	require.NoError(t, err)
	return store
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	svc := NewService(store, mlmodel.NewCache(filepath.Join(t.TempDir(), "none.json"), nil), zap.NewNop())

	d, err := svc.Dashboard(ctx, models.DefaultFilters())
	require.NoError(t, err)

	var total int64
	for _, o := range d.Outcomes {
		total += o.Count
	}
	assert.Equal(t, int64(120), total)
	assert.Len(t, d.VaxTypes, 2)
	assert.NotEmpty(t, d.OverTime)
	assert.Equal(t, "COVID19 - Headache", d.TopCombos[0].Label)
	assert.Equal(t, []models.SymptomCount{{Symptom: "Headache", Count: 120}}, d.TopSymptoms)
	for _, g := range d.SeriousByAge {
		assert.GreaterOrEqual(t, g.LowerAge, 60)
	}

	f := models.DefaultFilters()
	f.YearMin, f.YearMax = 1990, 1995
	empty, err := svc.Dashboard(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, empty.Outcomes)
	assert.Empty(t, empty.TopCombos)

	f = models.DefaultFilters()
	f.AgeMin, f.AgeMax = 50, 10
	_, err = svc.Dashboard(ctx, f)
	assert.ErrorIs(t, err, models.ErrInvalidFilters)
}

func TestPreviewAndVaxTypes(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededStore(t), mlmodel.NewCache("unused.json", nil), nil)

	table, err := svc.Preview(ctx, models.DefaultFilters(), 1000)
	require.NoError(t, err)
	assert.Len(t, table.Rows, factstore.PreviewLimit)

	types, err := svc.VaxTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"COVID19", "FLU3"}, types)

	assert.NoError(t, svc.Ready(ctx))
}

func TestPredict(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	modelPath := filepath.Join(t.TempDir(), "vaers_model.json")
	svc := NewService(store, mlmodel.NewCache(modelPath, nil), nil)
	input := models.PredictionInput{Sex: "F", AgeYears: 75, VaxType: "COVID19", DoseSeries: 1}

	_, err := svc.Predict(ctx, input)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	_, err = svc.ModelInfo()
	assert.ErrorIs(t, err, ErrModelUnavailable)

	trainer := mlmodel.NewService(store, mlmodel.Options{ModelPath: modelPath, Trees: 5, Seed: 42, TestSize: 0.33}, nil)
	_, err = trainer.Train(ctx)
	require.NoError(t, err)

	result, err := svc.Predict(ctx, input)
	require.NoError(t, err)
	assert.Len(t, result.Probabilities, 2)
	assert.Equal(t, input, result.Input)

	info, err := svc.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, modelPath, info.Path)
	assert.Equal(t, 5, info.Trees)

	_, err = svc.Predict(ctx, models.PredictionInput{Sex: "F", AgeYears: 200, VaxType: "COVID19", DoseSeries: 1})
	assert.ErrorIs(t, err, models.ErrInvalidPrediction)
}
