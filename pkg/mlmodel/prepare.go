package mlmodel

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vaersinsight/vaersinsight/pkg/models"
)

var doseNumber = regexp.MustCompile(`^[0-9]+$`)

// Sample is one training or prediction row in model terms
type Sample struct {
	Sex        string
	AgeYears   int
	VaxType    string
	DoseSeries int
	Outcome    string
}

// PrepareSamples keeps rows with a numeric dose of at least 1 and a non-empty
// outcome. Ages are truncated to whole years.
func PrepareSamples(rows []models.TrainingRow) []Sample {
	samples := make([]Sample, 0, len(rows))
	for _, r := range rows {
		if !doseNumber.MatchString(r.DoseSeries) {
			continue
		}
		dose, err := strconv.Atoi(r.DoseSeries)
		if err != nil || dose < 1 {
			continue
		}
		outcome := strings.TrimSpace(r.Outcome)
		if outcome == "" || r.AgeYears < 0 {
			continue
		}
		samples = append(samples, Sample{
			Sex:        r.Sex,
			AgeYears:   int(r.AgeYears),
			VaxType:    r.VaxType,
			DoseSeries: dose,
			Outcome:    outcome,
		})
	}
	return samples
}

// SampleFromInput converts a prediction request into a sample without outcome
func SampleFromInput(in models.PredictionInput) Sample {
	return Sample{
		Sex:        in.Sex,
		AgeYears:   in.AgeYears,
		VaxType:    in.VaxType,
		DoseSeries: in.DoseSeries,
	}
}
