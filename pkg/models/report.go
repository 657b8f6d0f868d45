package models

import "time"

// Column names shared by the VAERS export files and the fact table
const (
	ColVAERSID       = "VAERS_ID"
	ColReceivedDate  = "RECVDATE"
	ColAgeYears      = "AGE_YRS"
	ColSex           = "SEX"
	ColDied          = "DIED"
	ColDiedDate      = "DATEDIED"
	ColERVisit       = "ER_VISIT"
	ColEREDVisit     = "ER_ED_VISIT"
	ColHospital      = "HOSPITAL"
	ColVaxDate       = "VAX_DATE"
	ColOnsetDate     = "ONSET_DATE"
	ColVaxType       = "VAX_TYPE"
	ColVaxDoseSeries = "VAX_DOSE_SERIES"
	ColSymptom1      = "SYMPTOM1"
	ColYear          = "YEAR"
	ColOutcome       = "OUTCOME"
)

// PassThroughColumns are copied from the source files into the fact table as text
var PassThroughColumns = []string{
	"STATE", "CAGE_YR", "CAGE_MO", "RPT_DATE", "SYMPTOM_TEXT", "L_THREAT",
	"HOSPDAYS", "X_STAY", "DISABLE", "RECOVD", "NUMDAYS", "OTHER_MEDS",
	"CUR_ILL", "HISTORY", "PRIOR_VAX", "BIRTH_DEFECT", "ALLERGIES",
	"VAX_MANU", "VAX_LOT", "VAX_ROUTE", "VAX_SITE", "VAX_NAME",
	"SYMPTOMVERSION1", "SYMPTOM2", "SYMPTOMVERSION2", "SYMPTOM3", "SYMPTOMVERSION3",
	"SYMPTOM4", "SYMPTOMVERSION4", "SYMPTOM5", "SYMPTOMVERSION5",
}

// Outcome is the derived severity category of a report row
type Outcome string

const (
	OutcomeHospitalization Outcome = "Hospitalization"
	OutcomeERVisit         Outcome = "ER Visit"
	OutcomeDeath           Outcome = "Death"
	// OutcomeNoSeriousEvent is stored for rows without any serious flag and is the
	// value excluded by the serious-outcome views.
	OutcomeNoSeriousEvent Outcome = "No hospitalization, ER visit, or death"
)

// Outcomes lists every label DeriveOutcome can produce
var Outcomes = []Outcome{
	OutcomeHospitalization,
	OutcomeERVisit,
	OutcomeDeath,
	OutcomeNoSeriousEvent,
}

const flagSet = "Y"

// DeriveOutcome maps the raw outcome flags to a label. Hospitalization wins over
// an ER visit, which wins over death.
func DeriveOutcome(hospital, erVisit, erEDVisit, died string) Outcome {
	switch {
	case hospital == flagSet:
		return OutcomeHospitalization
	case erEDVisit == flagSet || erVisit == flagSet:
		return OutcomeERVisit
	case died == flagSet:
		return OutcomeDeath
	default:
		return OutcomeNoSeriousEvent
	}
}

// Report is one row of the fact table: a report joined with one vaccine and one
// symptom entry. Empty strings and nil pointers are stored as NULL.
type Report struct {
	VAERSID       string
	ReceivedDate  *time.Time
	AgeYears      *float64
	Sex           string
	Died          string
	DiedDate      *time.Time
	ERVisit       string
	EREDVisit     string
	Hospital      string
	VaxDate       *time.Time
	OnsetDate     *time.Time
	VaxType       string
	VaxDoseSeries string
	Symptom1      string
	Year          int
	Outcome       Outcome
	// Attributes holds the PassThroughColumns present in the source files
	Attributes map[string]string
}

// TrainingRow is the projection of the fact table read by the trainer
type TrainingRow struct {
	Sex        string
	AgeYears   float64
	VaxType    string
	DoseSeries string
	Outcome    string
}
