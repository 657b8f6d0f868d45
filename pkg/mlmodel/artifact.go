package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vaersinsight/vaersinsight/pkg/models"
)

var (
	// ErrNoTrainingData is returned when no rows survive preparation
	ErrNoTrainingData = errors.New("no training data")
	// ErrModelNotTrained is returned when no artifact exists at the model path
	ErrModelNotTrained = errors.New("model not trained")
)

// Artifact is the single persisted output of training
type Artifact struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	FeatureColumns []string  `json:"feature_columns"`
	TrainingRows   int       `json:"training_rows"`
	Pipeline       *Pipeline `json:"pipeline"`
}

// NewArtifact wraps a fitted pipeline
func NewArtifact(p *Pipeline, trainingRows int) *Artifact {
	return &Artifact{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		FeatureColumns: p.FeatureColumns(),
		TrainingRows:   trainingRows,
		Pipeline:       p,
	}
}

// Save writes the artifact to path via a temporary file and rename
func (a *Artifact) Save(path string) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates an artifact
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no model at %s", ErrModelNotTrained, path)
		}
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	if a.Pipeline == nil {
		return nil, fmt.Errorf("model %s has no pipeline", path)
	}
	if err := a.Pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	if !slices.Equal(a.FeatureColumns, a.Pipeline.FeatureColumns()) {
		return nil, fmt.Errorf("invalid model %s: feature columns do not match the encoder", path)
	}
	return &a, nil
}

// Info describes the artifact for display
func (a *Artifact) Info(path string) *models.ModelInfo {
	return &models.ModelInfo{
		ID:             a.ID,
		Path:           path,
		CreatedAt:      a.CreatedAt,
		Classes:        a.Pipeline.Classes,
		FeatureColumns: a.FeatureColumns,
		TrainingRows:   a.TrainingRows,
		Trees:          len(a.Pipeline.Forest.Trees),
		RandomSeed:     a.Pipeline.Forest.RandomSeed,
	}
}
