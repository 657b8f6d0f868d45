package models

// OutcomeCount is one slice of the outcome distribution
type OutcomeCount struct {
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

// VaxTypeCount is the report count for one vaccine type
type VaxTypeCount struct {
	VaxType string `json:"vax_type"`
	Count   int64  `json:"count"`
}

// YearVaxCount is one point of the per-year, per-vaccine series
type YearVaxCount struct {
	Year    int    `json:"year"`
	VaxType string `json:"vax_type"`
	Count   int64  `json:"count"`
}

// ComboCount counts one vaccine/symptom pairing
type ComboCount struct {
	VaxType string `json:"vax_type"`
	Symptom string `json:"symptom"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
}

// SymptomCount counts one primary symptom
type SymptomCount struct {
	Symptom string `json:"symptom"`
	Count   int64  `json:"count"`
}

// AgeGroupCount counts serious outcomes in a ten-year age bucket
type AgeGroupCount struct {
	AgeGroup string `json:"age_group"`
	LowerAge int    `json:"lower_age"`
	Count    int64  `json:"count"`
}

// Dashboard is the full set of aggregate views for one filter state
type Dashboard struct {
	Filters      Filters         `json:"filters"`
	Outcomes     []OutcomeCount  `json:"outcomes"`
	VaxTypes     []VaxTypeCount  `json:"vax_types"`
	OverTime     []YearVaxCount  `json:"over_time"`
	TopCombos    []ComboCount    `json:"top_combos"`
	TopSymptoms  []SymptomCount  `json:"top_symptoms"`
	SeriousByAge []AgeGroupCount `json:"serious_by_age"`
}

// Table is an unmodified slice of fact table rows
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
