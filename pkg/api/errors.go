package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/dashboard"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, models.ErrInvalidFilters), errors.Is(err, models.ErrInvalidPrediction):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &httpErr):
		return httpErr.Code
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && !errors.Is(err, models.ErrInvalidFilters) && !errors.Is(err, models.ErrInvalidPrediction) {
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Request().URL.Path), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: message})
	}
	if err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
