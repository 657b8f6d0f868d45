package models

import (
	"errors"
	"fmt"
	"time"
)

// Dose numbers offered by the prediction view
const (
	DoseLowerBound = 1
	DoseUpperBound = 5
)

// ErrInvalidPrediction is returned when prediction inputs are out of range
var ErrInvalidPrediction = errors.New("invalid prediction input")

// PredictionInput holds the four features chosen in the prediction view
type PredictionInput struct {
	Sex        string `json:"sex"`
	AgeYears   int    `json:"age"`
	VaxType    string `json:"vax_type"`
	DoseSeries int    `json:"dose"`
}

// Validate checks if the PredictionInput is within the ranges offered by the view
func (p *PredictionInput) Validate() error {
	if !contains(Sexes, p.Sex) {
		return fmt.Errorf("%w: sex must be one of %v", ErrInvalidPrediction, Sexes)
	}
	if p.AgeYears < AgeLowerBound || p.AgeYears > AgeUpperBound {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidPrediction, AgeLowerBound, AgeUpperBound)
	}
	if p.VaxType == "" {
		return fmt.Errorf("%w: vax_type is required", ErrInvalidPrediction)
	}
	if p.DoseSeries < DoseLowerBound || p.DoseSeries > DoseUpperBound {
		return fmt.Errorf("%w: dose must be between %d and %d", ErrInvalidPrediction, DoseLowerBound, DoseUpperBound)
	}
	return nil
}

// ClassProbability is the predicted probability of one outcome class
type ClassProbability struct {
	Class       string  `json:"class"`
	Probability float64 `json:"probability"`
}

// PredictionResult is the output of the prediction view
type PredictionResult struct {
	Input         PredictionInput    `json:"input"`
	Predicted     string             `json:"predicted"`
	Confidence    float64            `json:"confidence"` // Max class probability
	Probabilities []ClassProbability `json:"probabilities"`
}

// ModelInfo describes the loaded model artifact
type ModelInfo struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	CreatedAt      time.Time `json:"created_at"`
	Classes        []string  `json:"classes"`
	FeatureColumns []string  `json:"feature_columns"`
	TrainingRows   int       `json:"training_rows"`
	Trees          int       `json:"trees"`
	RandomSeed     int64     `json:"random_seed"`
}

// RetrainRun is the outcome of one retraining attempt
type RetrainRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ModelID    string    `json:"model_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// RetrainStatus describes scheduled retraining as served by the API
type RetrainStatus struct {
	Scheduled bool        `json:"scheduled"`
	Schedule  string      `json:"schedule,omitempty"`
	NextRun   *time.Time  `json:"next_run,omitempty"`
	LastRun   *RetrainRun `json:"last_run,omitempty"`
}
