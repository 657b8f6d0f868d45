package models

import (
	"errors"
	"fmt"
)

// FilterAll disables an equality filter
const FilterAll = "All"

// Bounds offered by the dashboard sliders
const (
	AgeLowerBound  = 0
	AgeUpperBound  = 112
	YearLowerBound = 1990
	YearUpperBound = 2025
)

// Sexes accepted by the sex filter and the prediction input
var Sexes = []string{"F", "M", "U"}

// ErrInvalidFilters is returned when dashboard filters cannot form a predicate
var ErrInvalidFilters = errors.New("invalid filters")

// Filters holds the five user-adjustable dashboard filters
type Filters struct {
	Sex     string `json:"sex" yaml:"sex"`
	Outcome string `json:"outcome" yaml:"outcome"`
	AgeMin  int    `json:"age_min" yaml:"age_min"`
	AgeMax  int    `json:"age_max" yaml:"age_max"`
	YearMin int    `json:"year_min" yaml:"year_min"`
	YearMax int    `json:"year_max" yaml:"year_max"`
}

// DefaultFilters returns the unfiltered dashboard state
func DefaultFilters() Filters {
	return Filters{
		Sex:     FilterAll,
		Outcome: FilterAll,
		AgeMin:  AgeLowerBound,
		AgeMax:  AgeUpperBound,
		YearMin: YearLowerBound,
		YearMax: YearUpperBound,
	}
}

// FiltersSex reports whether the sex equality filter is active
func (f Filters) FiltersSex() bool {
	return f.Sex != "" && f.Sex != FilterAll
}

// FiltersOutcome reports whether the outcome equality filter is active
func (f Filters) FiltersOutcome() bool {
	return f.Outcome != "" && f.Outcome != FilterAll
}

// Validate checks the ranges and the equality filter values
func (f Filters) Validate() error {
	if f.AgeMin < AgeLowerBound {
		return fmt.Errorf("%w: age_min %d is below %d", ErrInvalidFilters, f.AgeMin, AgeLowerBound)
	}
	if f.AgeMin > f.AgeMax {
		return fmt.Errorf("%w: age_min %d is greater than age_max %d", ErrInvalidFilters, f.AgeMin, f.AgeMax)
	}
	if f.YearMin > f.YearMax {
		return fmt.Errorf("%w: year_min %d is greater than year_max %d", ErrInvalidFilters, f.YearMin, f.YearMax)
	}
	if f.FiltersSex() && !contains(Sexes, f.Sex) {
		return fmt.Errorf("%w: unknown sex %q", ErrInvalidFilters, f.Sex)
	}
	if f.FiltersOutcome() {
		known := false
		for _, o := range Outcomes {
			if string(o) == f.Outcome {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: unknown outcome %q", ErrInvalidFilters, f.Outcome)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
