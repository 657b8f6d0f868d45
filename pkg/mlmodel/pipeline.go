package mlmodel

import (
	"fmt"
	"sort"

	"github.com/vaersinsight/vaersinsight/pkg/mlmodel/training"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// Categorical and numeric inputs, in encoded feature order
var (
	CategoricalColumns = []string{models.ColSex, models.ColVaxType}
	NumericColumns     = []string{models.ColAgeYears, models.ColVaxDoseSeries}
)

// Pipeline is the fitted encoder and forest. Classes is sorted and indexes
// the forest's probability vectors.
type Pipeline struct {
	Encoder *OneHotEncoder              `json:"encoder"`
	Forest  *training.RandomForestModel `json:"forest"`
	Classes []string                    `json:"classes"`
}

// FitPipeline fits the encoder and forest on samples
func FitPipeline(samples []Sample, config *training.Config) (*Pipeline, error) {
	if len(samples) == 0 {
		return nil, ErrNoTrainingData
	}

	classes := uniqueOutcomes(samples)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	encoder := NewOneHotEncoder(CategoricalColumns...)
	categorical := make([][]string, len(samples))
	for i, s := range samples {
		categorical[i] = []string{s.Sex, s.VaxType}
	}
	if err := encoder.Fit(categorical); err != nil {
		return nil, fmt.Errorf("failed to fit encoder: %w", err)
	}

	p := &Pipeline{Encoder: encoder, Classes: classes}
	data := &training.TrainingData{
		Features:     make([][]float64, len(samples)),
		Labels:       make([]int, len(samples)),
		NumClasses:   len(classes),
		FeatureNames: p.FeatureColumns(),
	}
	for i, s := range samples {
		data.Features[i] = p.Features(s)
		data.Labels[i] = classIndex[s.Outcome]
	}

	trainer, err := training.NewTrainerFactory().GetTrainer(training.ModelTypeRandomForest)
	if err != nil {
		return nil, err
	}
	model, err := trainer.Train(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to train forest: %w", err)
	}
	forest, ok := model.(*training.RandomForestModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", model)
	}
	p.Forest = forest
	return p, nil
}

func uniqueOutcomes(samples []Sample) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, s := range samples {
		if !seen[s.Outcome] {
			seen[s.Outcome] = true
			classes = append(classes, s.Outcome)
		}
	}
	sort.Strings(classes)
	return classes
}

// FeatureColumns returns the encoded feature names in vector order
func (p *Pipeline) FeatureColumns() []string {
	return append(p.Encoder.FeatureNames(), NumericColumns...)
}

// Features encodes one sample
func (p *Pipeline) Features(s Sample) []float64 {
	x := make([]float64, 0, p.Encoder.Width()+len(NumericColumns))
	x = p.Encoder.Transform(x, []string{s.Sex, s.VaxType})
	return append(x, float64(s.AgeYears), float64(s.DoseSeries))
}

// PredictProba returns one probability per entry of Classes
func (p *Pipeline) PredictProba(s Sample) []float64 {
	return p.Forest.PredictProba(p.Features(s))
}

// Predict returns the most probable class and its probability
func (p *Pipeline) Predict(s Sample) (string, float64) {
	proba := p.PredictProba(s)
	best := training.Argmax(proba)
	return p.Classes[best], proba[best]
}

// PredictInput validates a prediction request and scores it
func (p *Pipeline) PredictInput(in models.PredictionInput) (*models.PredictionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	proba := p.PredictProba(SampleFromInput(in))
	best := training.Argmax(proba)
	result := &models.PredictionResult{
		Input:         in,
		Predicted:     p.Classes[best],
		Confidence:    proba[best],
		Probabilities: make([]models.ClassProbability, len(p.Classes)),
	}
	for i, c := range p.Classes {
		result.Probabilities[i] = models.ClassProbability{Class: c, Probability: proba[i]}
	}
	return result, nil
}

// Validate checks that the encoder, forest and classes agree with each other
func (p *Pipeline) Validate() error {
	if p.Encoder == nil || p.Forest == nil {
		return fmt.Errorf("pipeline is missing its encoder or forest")
	}
	if err := p.Encoder.validate(); err != nil {
		return err
	}
	if err := p.Forest.Validate(); err != nil {
		return err
	}
	if len(p.Classes) != p.Forest.NumClasses() {
		return fmt.Errorf("pipeline has %d classes, forest has %d", len(p.Classes), p.Forest.NumClasses())
	}
	if width := p.Encoder.Width() + len(NumericColumns); width != p.Forest.NumFeatures {
		return fmt.Errorf("pipeline encodes %d features, forest expects %d", width, p.Forest.NumFeatures)
	}
	return nil
}
