package training

import (
	"fmt"
	"math/rand"
)

// RandomForestTrainer trains bagged ensembles of decision trees
type RandomForestTrainer struct{}

// RandomForestModel is a fitted forest. Each tree is grown on a bootstrap
// sample with a random subset of features considered at every split.
type RandomForestModel struct {
	Trees          []*DecisionTreeModel `json:"trees"`
	NumTrees       int                  `json:"num_trees"`
	MaxDepth       int                  `json:"max_depth"`
	MinSamplesLeaf int                  `json:"min_samples_leaf"`
	MaxFeatures    int                  `json:"max_features"`
	NumFeatures    int                  `json:"num_features"`
	Classes        int                  `json:"num_classes"`
	RandomSeed     int64                `json:"random_seed"`
}

// NewRandomForestTrainer creates a new random forest trainer
func NewRandomForestTrainer() *RandomForestTrainer {
	return &RandomForestTrainer{}
}

// Train grows config.Trees trees in sequence. The forest is fully determined
// by the data and config.Seed.
func (t *RandomForestTrainer) Train(data *TrainingData, config *Config) (Model, error) {
	return t.TrainForest(data, config)
}

// TrainForest is Train with the concrete model type
func (t *RandomForestTrainer) TrainForest(data *TrainingData, config *Config) (*RandomForestModel, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Trees <= 0 {
		return nil, fmt.Errorf("tree count must be positive, got %d", config.Trees)
	}

	numFeatures := len(data.Features[0])
	maxFeatures := config.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = sqrtFeatures(numFeatures)
	}

	forest := &RandomForestModel{
		Trees:          make([]*DecisionTreeModel, config.Trees),
		NumTrees:       config.Trees,
		MaxDepth:       config.MaxDepth,
		MinSamplesLeaf: config.MinSamplesLeaf,
		MaxFeatures:    maxFeatures,
		NumFeatures:    numFeatures,
		Classes:        data.NumClasses,
		RandomSeed:     config.Seed,
	}

	master := rand.New(rand.NewSource(config.Seed))
	n := len(data.Features)
	for i := range forest.Trees {
		rng := rand.New(rand.NewSource(master.Int63()))

		sample := make([]int, n)
		for j := range sample {
			sample[j] = rng.Intn(n)
		}

		b := newTreeBuilder(data, config, maxFeatures, rng)
		forest.Trees[i] = &DecisionTreeModel{Root: b.build(sample, 0), Classes: data.NumClasses}
	}

	return forest, nil
}

// GetType returns the model type
func (t *RandomForestTrainer) GetType() string {
	return ModelTypeRandomForest
}

// PredictProba averages the leaf class distributions of every tree
func (m *RandomForestModel) PredictProba(features []float64) []float64 {
	proba := make([]float64, m.Classes)
	if len(m.Trees) == 0 {
		return proba
	}
	for _, tree := range m.Trees {
		for c, p := range tree.PredictProba(features) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(m.Trees))
	}
	return proba
}

// NumClasses returns the number of classes
func (m *RandomForestModel) NumClasses() int {
	return m.Classes
}

// Validate checks a forest loaded from disk before it is used for prediction
func (m *RandomForestModel) Validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if m.Classes < 1 {
		return fmt.Errorf("forest has no classes")
	}
	for i, tree := range m.Trees {
		if tree == nil {
			return fmt.Errorf("tree %d is missing", i)
		}
		if tree.Classes != m.Classes {
			return fmt.Errorf("tree %d has %d classes, expected %d", i, tree.Classes, m.Classes)
		}
		if err := tree.validate(m.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Argmax returns the index of the largest value, preferring the first on ties
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
