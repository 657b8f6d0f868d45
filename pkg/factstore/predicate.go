package factstore

import (
	"fmt"
	"strings"

	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// Predicate is a parameterized WHERE clause. SQL uses ? placeholders and is
// rebound to the dialect when the query runs.
type Predicate struct {
	SQL  string
	Args []any
}

// FilterPredicate translates dashboard filters into a predicate. The year and
// age ranges are always applied, sex and outcome only when they are not "All".
func FilterPredicate(d Dialect, f models.Filters) (Predicate, error) {
	if err := f.Validate(); err != nil {
		return Predicate{}, err
	}

	clauses := []string{
		fmt.Sprintf("%s BETWEEN ? AND ?", d.Quote(models.ColYear)),
		fmt.Sprintf("%s BETWEEN ? AND ?", d.Quote(models.ColAgeYears)),
	}
	args := []any{f.YearMin, f.YearMax, f.AgeMin, f.AgeMax}

	if f.FiltersSex() {
		clauses = append(clauses, fmt.Sprintf("%s = ?", d.Quote(models.ColSex)))
		args = append(args, f.Sex)
	}
	if f.FiltersOutcome() {
		clauses = append(clauses, fmt.Sprintf("%s = ?", d.Quote(models.ColOutcome)))
		args = append(args, f.Outcome)
	}

	return Predicate{SQL: strings.Join(clauses, " AND "), Args: args}, nil
}
