package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaersinsight/vaersinsight/pkg/dashboard"
	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(svc *dashboard.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.Ready(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
}

// bindFilters reads the dashboard filters from the query string. Absent
// parameters keep their defaults.
func bindFilters(c echo.Context) (models.Filters, error) {
	f := models.DefaultFilters()
	err := echo.QueryParamsBinder(c).
		String("sex", &f.Sex).
		String("outcome", &f.Outcome).
		Int("age_min", &f.AgeMin).
		Int("age_max", &f.AgeMax).
		Int("year_min", &f.YearMin).
		Int("year_max", &f.YearMax).
		BindError()
	if err != nil {
		return f, fmt.Errorf("%w: %v", models.ErrInvalidFilters, err)
	}
	return f, nil
}

func handleDashboard(svc *dashboard.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := bindFilters(c)
		if err != nil {
			return err
		}
		d, err := svc.Dashboard(c.Request().Context(), f)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, d)
	}
}

func handlePreview(svc *dashboard.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := bindFilters(c)
		if err != nil {
			return err
		}
		limit := factstore.PreviewLimit
		if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidFilters, err)
		}
		table, err := svc.Preview(c.Request().Context(), f, limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, table)
	}
}

func handleVaxTypes(svc *dashboard.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		types, err := svc.VaxTypes(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string][]string{"vax_types": types})
	}
}

func handleModelInfo(svc *dashboard.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		info, err := svc.ModelInfo()
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, info)
	}
}

func handlePredict(svc *dashboard.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in models.PredictionInput
		if err := c.Bind(&in); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidPrediction, err)
		}
		result, err := svc.Predict(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (s *Server) handleRetrainStatus(c echo.Context) error {
	if s.retrain == nil {
		return c.JSON(http.StatusOK, models.RetrainStatus{})
	}
	return c.JSON(http.StatusOK, s.retrain.Status())
}
