package dashboard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// ErrModelUnavailable is returned when the prediction model cannot be loaded
var ErrModelUnavailable = errors.New("model unavailable")

// Queries is the read side of the fact store used by the dashboard
type Queries interface {
	Dialect() factstore.Dialect
	Ping(ctx context.Context) error
	OutcomeCounts(ctx context.Context, p factstore.Predicate) ([]models.OutcomeCount, error)
	VaxTypeCounts(ctx context.Context, p factstore.Predicate) ([]models.VaxTypeCount, error)
	YearVaxCounts(ctx context.Context, p factstore.Predicate) ([]models.YearVaxCount, error)
	TopCombos(ctx context.Context, p factstore.Predicate) ([]models.ComboCount, error)
	TopSymptoms(ctx context.Context, p factstore.Predicate) ([]models.SymptomCount, error)
	SeriousByAge(ctx context.Context, p factstore.Predicate) ([]models.AgeGroupCount, error)
	Preview(ctx context.Context, p factstore.Predicate, limit int) (*models.Table, error)
	DistinctVaxTypes(ctx context.Context) ([]string, error)
}

// Service assembles dashboard views and predictions
type Service struct {
	store  Queries
	model  *mlmodel.Cache
	logger *zap.Logger
}

// NewService creates a new dashboard service
func NewService(store Queries, model *mlmodel.Cache, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{store: store, model: model, logger: logger}
}

// Dashboard runs every aggregate view for the filters. Views share one
// predicate and run one after another.
func (s *Service) Dashboard(ctx context.Context, f models.Filters) (*models.Dashboard, error) {
	p, err := factstore.FilterPredicate(s.store.Dialect(), f)
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{Filters: f}
	if d.Outcomes, err = s.store.OutcomeCounts(ctx, p); err != nil {
		return nil, fmt.Errorf("outcome distribution: %w", err)
	}
	if d.VaxTypes, err = s.store.VaxTypeCounts(ctx, p); err != nil {
		return nil, fmt.Errorf("vaccine types: %w", err)
	}
	if d.OverTime, err = s.store.YearVaxCounts(ctx, p); err != nil {
		return nil, fmt.Errorf("reports over time: %w", err)
	}
	if d.TopCombos, err = s.store.TopCombos(ctx, p); err != nil {
		return nil, fmt.Errorf("top vaccine/symptom pairs: %w", err)
	}
	if d.TopSymptoms, err = s.store.TopSymptoms(ctx, p); err != nil {
		return nil, fmt.Errorf("top symptoms: %w", err)
	}
	if d.SeriousByAge, err = s.store.SeriousByAge(ctx, p); err != nil {
		return nil, fmt.Errorf("serious outcomes by age: %w", err)
	}

	s.logger.Debug("Built dashboard",
		zap.String("predicate", p.SQL),
		zap.Int("outcomes", len(d.Outcomes)),
		zap.Int("vax_types", len(d.VaxTypes)))
	return d, nil
}

// Preview returns unmodified rows matching the filters, at most factstore.PreviewLimit
func (s *Service) Preview(ctx context.Context, f models.Filters, limit int) (*models.Table, error) {
	p, err := factstore.FilterPredicate(s.store.Dialect(), f)
	if err != nil {
		return nil, err
	}
	return s.store.Preview(ctx, p, limit)
}

// VaxTypes returns the vaccine types offered by the prediction view
func (s *Service) VaxTypes(ctx context.Context) ([]string, error) {
	return s.store.DistinctVaxTypes(ctx)
}

// Predict scores one input with the cached model
func (s *Service) Predict(ctx context.Context, in models.PredictionInput) (*models.PredictionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	artifact, err := s.model.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	result, err := artifact.Pipeline.PredictInput(in)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Prediction",
		zap.String("vax_type", in.VaxType),
		zap.String("predicted", result.Predicted),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// ModelInfo describes the cached model
func (s *Service) ModelInfo() (*models.ModelInfo, error) {
	artifact, err := s.model.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return artifact.Info(s.model.Path()), nil
}

// InvalidateModel drops the cached model so the next prediction reloads it
func (s *Service) InvalidateModel() {
	s.model.Invalidate()
}

// Ready reports whether the fact store is reachable
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
