package mlmodel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel/training"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// TrainingSource supplies the training projection of the fact table
type TrainingSource interface {
	TrainingRows(ctx context.Context) ([]models.TrainingRow, error)
}

// Options configures training
type Options struct {
	ModelPath string
	Trees     int
	MaxDepth  int
	Seed      int64
	TestSize  float64
}

// Service trains, persists and evaluates the outcome model
type Service struct {
	source TrainingSource
	opts   Options
	logger *zap.Logger
}

// NewService creates a new model service
func NewService(source TrainingSource, opts Options, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{source: source, opts: opts, logger: logger}
}

func (s *Service) config() *training.Config {
	config := training.DefaultConfig()
	config.Trees = s.opts.Trees
	config.MaxDepth = s.opts.MaxDepth
	config.Seed = s.opts.Seed
	return config
}

// split loads the prepared samples and partitions them with the configured seed
func (s *Service) split(ctx context.Context) (samples []Sample, train, test []int, err error) {
	rows, err := s.source.TrainingRows(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load training rows: %w", err)
	}
	samples = PrepareSamples(rows)
	if len(samples) == 0 {
		return nil, nil, nil, ErrNoTrainingData
	}

	train, test, err = training.TrainTestSplit(len(samples), s.opts.TestSize, s.opts.Seed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrNoTrainingData, err)
	}
	return samples, train, test, nil
}

func pick(samples []Sample, idx []int) []Sample {
	out := make([]Sample, len(idx))
	for i, j := range idx {
		out[i] = samples[j]
	}
	return out
}

// Train fits the pipeline on the training split and saves the artifact.
// No metrics are computed here; see Evaluate.
func (s *Service) Train(ctx context.Context) (*Artifact, error) {
	start := time.Now()
	samples, train, test, err := s.split(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Training model",
		zap.Int("samples", len(samples)),
		zap.Int("train", len(train)),
		zap.Int("test", len(test)),
		zap.Int("trees", s.opts.Trees),
		zap.Int64("seed", s.opts.Seed))

	pipeline, err := FitPipeline(pick(samples, train), s.config())
	if err != nil {
		return nil, err
	}

	artifact := NewArtifact(pipeline, len(train))
	if err := artifact.Save(s.opts.ModelPath); err != nil {
		return nil, err
	}

	s.logger.Info("Model saved",
		zap.String("path", s.opts.ModelPath),
		zap.String("model_id", artifact.ID),
		zap.Strings("classes", pipeline.Classes),
		zap.Duration("duration", time.Since(start)))
	return artifact, nil
}

// Evaluation is the hold-out performance of an artifact
type Evaluation struct {
	Classes        []string
	TestRows       int
	Skipped        int // hold-out rows whose outcome the model never saw
	Accuracy       float64
	MeanConfidence float64
	Precision      []float64
	Recall         []float64
	Confusion      *mat.Dense
}

// Evaluate scores the artifact on the hold-out split reproduced with the same seed
func (s *Service) Evaluate(ctx context.Context, artifact *Artifact) (*Evaluation, error) {
	samples, _, test, err := s.split(ctx)
	if err != nil {
		return nil, err
	}

	p := artifact.Pipeline
	classIndex := make(map[string]int, len(p.Classes))
	for i, c := range p.Classes {
		classIndex[c] = i
	}

	var predicted, actual []int
	var confidence []float64
	skipped := 0
	for _, sample := range pick(samples, test) {
		want, known := classIndex[sample.Outcome]
		if !known {
			skipped++
			continue
		}
		proba := p.PredictProba(sample)
		best := training.Argmax(proba)
		predicted = append(predicted, best)
		actual = append(actual, want)
		confidence = append(confidence, proba[best])
	}

	metrics := training.CalculateClassificationMetrics(predicted, actual, len(p.Classes), confidence)
	return &Evaluation{
		Classes:        p.Classes,
		TestRows:       len(test),
		Skipped:        skipped,
		Accuracy:       metrics.Accuracy,
		MeanConfidence: metrics.MeanConfidence,
		Precision:      metrics.Precision,
		Recall:         metrics.Recall,
		Confusion:      metrics.Confusion,
	}, nil
}
