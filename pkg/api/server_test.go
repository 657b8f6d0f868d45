package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/dashboard"
	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
	"github.com/vaersinsight/vaersinsight/pkg/scheduler"
)

type fixture struct {
	server    *Server
	store     *factstore.Store
	modelPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := factstore.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "vaers.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var reports []models.Report
	for i := 0; i < 150; i++ {
		age := float64(i % 80)
		recv := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
		r := models.Report{
			VAERSID:       fmt.Sprintf("%d", i),
			ReceivedDate:  &recv,
			AgeYears:      &age,
			Sex:           []string{"F", "M"}[i%2],
			VaxType:       []string{"COVID19", "FLU3", "HPV9"}[i%3],
			VaxDoseSeries: "1",
			Symptom1:      "Pyrexia",
			Year:          2021,
		}
		if i%4 == 0 {
			r.ERVisit = "Y"
		}
		r.Outcome = models.DeriveOutcome(r.Hospital, r.ERVisit, r.EREDVisit, r.Died)
		reports = append(reports, r)
	}
	_, err = store.Append(ctx, reports)
	require.NoError(t, err)

	modelPath := filepath.Join(t.TempDir(), "vaers_model.json")
	svc := dashboard.NewService(store, mlmodel.NewCache(modelPath, nil), nil)
	return &fixture{server: NewServer(svc, "0", zap.NewNop()), store: store, modelPath: modelPath}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.store.Close()
	rec = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "defaults", query: "", status: http.StatusOK},
		{name: "filtered", query: "?sex=F&outcome=ER%20Visit&age_min=10&age_max=60&year_min=2020&year_max=2022", status: http.StatusOK},
		{name: "all", query: "?sex=All&outcome=All", status: http.StatusOK},
		{name: "bad number", query: "?age_min=ten", status: http.StatusBadRequest},
		{name: "inverted range", query: "?year_min=2025&year_max=2000", status: http.StatusBadRequest},
		{name: "unknown sex", query: "?sex=Q", status: http.StatusBadRequest},
		{name: "negative age", query: "?age_min=-20", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/dashboard"+tt.query, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Error)
				return
			}
			var d models.Dashboard
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
			assert.NotNil(t, d.Outcomes)
		})
	}

	rec := f.do(t, http.MethodGet, "/api/dashboard?sex=F&outcome=ER%20Visit", "")
	var d models.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	require.Len(t, d.Outcomes, 1)
	assert.Equal(t, "ER Visit", d.Outcomes[0].Outcome)
	assert.Equal(t, "F", d.Filters.Sex)
}

func TestPreviewEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table models.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Rows, factstore.PreviewLimit)

	rec = f.do(t, http.MethodGet, "/api/preview?limit=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Rows, 7)
}

func TestVaxTypesEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/vax-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"vax_types":["COVID19","FLU3","HPV9"]}`, rec.Body.String())
}

func TestPredictEndpoint(t *testing.T) {
	f := newFixture(t)
	body := `{"sex":"M","age":35,"vax_type":"FLU3","dose":2}`

	rec := f.do(t, http.MethodPost, "/api/predict", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/model", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	trainer := mlmodel.NewService(f.store, mlmodel.Options{ModelPath: f.modelPath, Trees: 5, Seed: 42, TestSize: 0.33}, nil)
	_, err := trainer.Train(context.Background())
	require.NoError(t, err)

	rec = f.do(t, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "FLU3", result.Input.VaxType)
	assert.Len(t, result.Probabilities, 2)

	rec = f.do(t, http.MethodGet, "/api/model", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info models.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 5, info.Trees)

	rec = f.do(t, http.MethodPost, "/api/predict", `{"sex":"M","age":35,"vax_type":"FLU3","dose":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/predict", `{"sex":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetrainStatusEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/retrain", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.RetrainStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Scheduled)
	assert.Nil(t, status.LastRun)

	trainer := mlmodel.NewService(f.store, mlmodel.Options{
		ModelPath: f.modelPath,
		Trees:     3,
		Seed:      42,
		TestSize:  0.33,
	}, nil)
	sched := scheduler.NewService(trainer, nil, nil)
	require.NoError(t, sched.Schedule("@daily"))
	require.NoError(t, sched.RunNow(context.Background()))
	f.server.SetRetrainStatus(sched)

	rec = f.do(t, http.MethodGet, "/api/retrain", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status = models.RetrainStatus{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Scheduled)
	assert.Equal(t, "@daily", status.Schedule)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))
	require.NotNil(t, status.LastRun)
	assert.NotEmpty(t, status.LastRun.ModelID)
	assert.Empty(t, status.LastRun.Error)
}
