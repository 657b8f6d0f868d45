package training

import (
	"encoding/json"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds two features where the class is determined by x0 > 5
func separable(n int, seed int64) *TrainingData {
	rng := rand.New(rand.NewSource(seed))
	data := &TrainingData{NumClasses: 2, FeatureNames: []string{"x0", "noise"}}
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		label := 0
		if x0 > 5 {
			label = 1
		}
		data.Features = append(data.Features, []float64{x0, rng.Float64()})
		data.Labels = append(data.Labels, label)
	}
	return data
}

// depth returns the length of the longest root to leaf path
func depth(n *Node) int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	l, r := depth(n.Left), depth(n.Right)
	if l > r {
		return l + 1
	}
	return r + 1
}

func TestDecisionTreeFitsSeparableData(t *testing.T) {
	data := separable(200, 1)

	model, err := NewDecisionTreeTrainer().Train(data, DefaultConfig())
	require.NoError(t, err)

	for i, row := range data.Features {
		proba := model.PredictProba(row)
		assert.Equal(t, data.Labels[i], Argmax(proba))
	}
	assert.Equal(t, 2, model.NumClasses())
}

func TestDecisionTreeMaxDepth(t *testing.T) {
	data := separable(200, 2)
	config := DefaultConfig()
	config.MaxDepth = 1

	model, err := NewDecisionTreeTrainer().Train(data, config)
	require.NoError(t, err)
	assert.LessOrEqual(t, depth(model.(*DecisionTreeModel).Root), 1)
}

func TestDecisionTreeSingleClass(t *testing.T) {
	data := &TrainingData{
		Features:   [][]float64{{1}, {2}, {3}},
		Labels:     []int{1, 1, 1},
		NumClasses: 3,
	}
	model, err := NewDecisionTreeTrainer().Train(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, model.PredictProba([]float64{10}))
}

func TestRandomForestDeterministic(t *testing.T) {
	data := separable(300, 3)
	config := DefaultConfig()
	config.Trees = 15

	trainer := NewRandomForestTrainer()
	first, err := trainer.TrainForest(data, config)
	require.NoError(t, err)
	second, err := trainer.TrainForest(data, config)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	point := []float64{4.9, 0.5}
	assert.Equal(t, first.PredictProba(point), second.PredictProba(point))
}

func TestRandomForestProbabilities(t *testing.T) {
	data := separable(300, 4)
	config := DefaultConfig()
	config.Trees = 10

	forest, err := NewRandomForestTrainer().TrainForest(data, config)
	require.NoError(t, err)
	require.NoError(t, forest.Validate())
	assert.Equal(t, 1, forest.MaxFeatures)

	for _, point := range [][]float64{{0, 0}, {9.5, 1}, {5, 0.5}, {-100, 100}} {
		proba := forest.PredictProba(point)
		require.Len(t, proba, 2)
		sum := 0.0
		for _, p := range proba {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	assert.Equal(t, 0, Argmax(forest.PredictProba([]float64{1, 0.5})))
	assert.Equal(t, 1, Argmax(forest.PredictProba([]float64{9, 0.5})))
}

func TestRandomForestValidate(t *testing.T) {
	assert.Error(t, (&RandomForestModel{}).Validate())

	forest := &RandomForestModel{
		Trees:       []*DecisionTreeModel{{Root: &Node{Distribution: []float64{1}}, Classes: 2}},
		Classes:     2,
		NumFeatures: 1,
	}
	assert.Error(t, forest.Validate())
}

func TestTrainingDataValidate(t *testing.T) {
	tests := []struct {
		name string
		data *TrainingData
	}{
		{name: "empty", data: &TrainingData{NumClasses: 1}},
		{name: "length mismatch", data: &TrainingData{Features: [][]float64{{1}}, Labels: []int{0, 1}, NumClasses: 2}},
		{name: "ragged", data: &TrainingData{Features: [][]float64{{1}, {1, 2}}, Labels: []int{0, 0}, NumClasses: 1}},
		{name: "label out of range", data: &TrainingData{Features: [][]float64{{1}}, Labels: []int{3}, NumClasses: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.data.Validate())
		})
	}
}

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(10, 0.33, 42)
	require.NoError(t, err)
	assert.Len(t, test, 4)
	assert.Len(t, train, 6)

	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	again, _, err := TrainTestSplit(10, 0.33, 42)
	require.NoError(t, err)
	assert.Equal(t, train, again)

	_, _, err = TrainTestSplit(1, 0.33, 42)
	assert.Error(t, err)
	_, _, err = TrainTestSplit(10, 1.2, 42)
	assert.Error(t, err)
}

func TestCalculateClassificationMetrics(t *testing.T) {
	actual := []int{0, 0, 1, 1, 2}
	predicted := []int{0, 1, 1, 1, 0}

	m := CalculateClassificationMetrics(predicted, actual, 3, []float64{0.5, 0.7, 0.9, 0.8, 0.6})
	assert.InDelta(t, 0.6, m.Accuracy, 1e-9)
	assert.Equal(t, 1.0, m.Confusion.At(0, 0))
	assert.Equal(t, 1.0, m.Confusion.At(0, 1))
	assert.Equal(t, 2.0, m.Confusion.At(1, 1))
	assert.Equal(t, 1.0, m.Confusion.At(2, 0))
	assert.InDelta(t, 0.5, m.Precision[0], 1e-9)
	assert.InDelta(t, 2.0/3.0, m.Precision[1], 1e-9)
	assert.Equal(t, 0.0, m.Recall[2])
	assert.InDelta(t, 0.7, m.MeanConfidence, 1e-9)
}

func TestTrainerFactory(t *testing.T) {
	factory := NewTrainerFactory()

	trainer, err := factory.GetTrainer(ModelTypeRandomForest)
	require.NoError(t, err)
	assert.Equal(t, ModelTypeRandomForest, trainer.GetType())

	trainer, err = factory.GetTrainer(ModelTypeDecisionTree)
	require.NoError(t, err)
	assert.Equal(t, ModelTypeDecisionTree, trainer.GetType())

	_, err = factory.GetTrainer("neural_network")
	assert.Error(t, err)
}
