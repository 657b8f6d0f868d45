package training

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ClassificationMetrics summarizes predictions against known labels
type ClassificationMetrics struct {
	Accuracy float64
	// Confusion is indexed [actual][predicted]
	Confusion *mat.Dense
	Precision []float64
	Recall    []float64
	// MeanConfidence is the average probability of the predicted class
	MeanConfidence float64
}

// CalculateClassificationMetrics builds the confusion matrix and per-class
// precision and recall. confidence may be nil.
func CalculateClassificationMetrics(predicted, actual []int, numClasses int, confidence []float64) *ClassificationMetrics {
	confusion := mat.NewDense(numClasses, numClasses, nil)
	correct := 0
	for i := range predicted {
		confusion.Set(actual[i], predicted[i], confusion.At(actual[i], predicted[i])+1)
		if predicted[i] == actual[i] {
			correct++
		}
	}

	m := &ClassificationMetrics{
		Confusion: confusion,
		Precision: make([]float64, numClasses),
		Recall:    make([]float64, numClasses),
	}
	if len(predicted) > 0 {
		m.Accuracy = float64(correct) / float64(len(predicted))
	}

	for c := 0; c < numClasses; c++ {
		tp := confusion.At(c, c)
		if col := mat.Sum(confusion.ColView(c)); col > 0 {
			m.Precision[c] = tp / col
		}
		if row := mat.Sum(confusion.RowView(c)); row > 0 {
			m.Recall[c] = tp / row
		}
	}

	if len(confidence) > 0 {
		m.MeanConfidence = stat.Mean(confidence, nil)
	}
	return m
}
