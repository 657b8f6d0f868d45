package training

import (
	"fmt"
	"math"
)

// Model types understood by the TrainerFactory
const (
	ModelTypeDecisionTree = "decision_tree"
	ModelTypeRandomForest = "random_forest"
)

// Trainer interface defines the contract for classifier training
type Trainer interface {
	// Train fits a model on the provided data
	Train(data *TrainingData, config *Config) (Model, error)

	// GetType returns the model type this trainer handles
	GetType() string
}

// Model is a fitted classifier over integer class labels
type Model interface {
	// PredictProba returns one probability per class, in class index order
	PredictProba(features []float64) []float64
	// NumClasses returns the length of the PredictProba vector
	NumClasses() int
}

// TrainingData holds the encoded training set
type TrainingData struct {
	Features     [][]float64 // rows x features
	Labels       []int       // class index per row
	NumClasses   int
	FeatureNames []string
}

// Validate checks the shape of the training data
func (d *TrainingData) Validate() error {
	if len(d.Features) == 0 {
		return fmt.Errorf("no training data provided")
	}
	if len(d.Features) != len(d.Labels) {
		return fmt.Errorf("features and labels differ in length: %d vs %d", len(d.Features), len(d.Labels))
	}
	if d.NumClasses < 1 {
		return fmt.Errorf("at least one class is required")
	}
	width := len(d.Features[0])
	for i, row := range d.Features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	for i, l := range d.Labels {
		if l < 0 || l >= d.NumClasses {
			return fmt.Errorf("row %d has label %d outside [0, %d)", i, l, d.NumClasses)
		}
	}
	return nil
}

// Config holds the hyperparameters shared by the tree trainers
type Config struct {
	Trees          int
	MaxDepth       int // 0 grows until leaves are pure
	MinSamplesLeaf int
	// MaxFeatures is the number of features considered per split. 0 selects
	// sqrt(features) for forests and every feature for single trees.
	MaxFeatures int
	Seed        int64
}

// DefaultConfig returns the forest configuration used by the trainer
func DefaultConfig() *Config {
	return &Config{
		Trees:          100,
		MaxDepth:       0,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

func sqrtFeatures(n int) int {
	k := int(math.Sqrt(float64(n)))
	if k < 1 {
		k = 1
	}
	return k
}

// TrainerFactory creates trainers for different model types
type TrainerFactory struct {
	trainers map[string]Trainer
}

// NewTrainerFactory creates a new trainer factory
func NewTrainerFactory() *TrainerFactory {
	factory := &TrainerFactory{
		trainers: make(map[string]Trainer),
	}

	factory.trainers[ModelTypeDecisionTree] = NewDecisionTreeTrainer()
	factory.trainers[ModelTypeRandomForest] = NewRandomForestTrainer()

	return factory
}

// GetTrainer returns the appropriate trainer for a model type
func (f *TrainerFactory) GetTrainer(modelType string) (Trainer, error) {
	trainer, ok := f.trainers[modelType]
	if !ok {
		return nil, fmt.Errorf("no trainer available for model type: %s", modelType)
	}
	return trainer, nil
}
