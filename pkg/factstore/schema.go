package factstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// TableName is the single fact table written by extraction and read by everything else
const TableName = "vaers_data"

// DateLayout is the text format of date columns
const DateLayout = "2006-01-02"

// ColumnKind is the storage class of a fact table column
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindReal
	KindInteger
	KindDate // stored as DateLayout text
)

// Column is one column of the fact table
type Column struct {
	Name string
	Kind ColumnKind
}

// Columns is the ordered fact table schema
var Columns = append([]Column{
	{models.ColVAERSID, KindText},
	{models.ColReceivedDate, KindDate},
	{models.ColAgeYears, KindReal},
	{models.ColSex, KindText},
	{models.ColDied, KindText},
	{models.ColDiedDate, KindDate},
	{models.ColERVisit, KindText},
	{models.ColEREDVisit, KindText},
	{models.ColHospital, KindText},
	{models.ColVaxDate, KindDate},
	{models.ColOnsetDate, KindDate},
	{models.ColVaxType, KindText},
	{models.ColVaxDoseSeries, KindText},
	{models.ColSymptom1, KindText},
	{models.ColYear, KindInteger},
	{models.ColOutcome, KindText},
}, passThrough()...)

func passThrough() []Column {
	cols := make([]Column, len(models.PassThroughColumns))
	for i, name := range models.PassThroughColumns {
		cols[i] = Column{Name: name, Kind: KindText}
	}
	return cols
}

// ColumnNames returns the schema column names in table order
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is part of the schema
func HasColumn(name string) bool {
	for _, c := range Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

func schemaStatements(d Dialect) []string {
	defs := make([]string, len(Columns))
	for i, c := range Columns {
		defs[i] = fmt.Sprintf("%s %s", d.Quote(c.Name), d.columnType(c.Kind))
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", TableName, strings.Join(defs, ",\n\t")),
	}
	if d.indexIfAbsent {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_year ON %s(%s)",
			TableName, TableName, d.Quote(models.ColYear)))
	}
	return stmts
}

func insertStatement(d Dialect) string {
	quoted := make([]string, len(Columns))
	marks := make([]string, len(Columns))
	for i, c := range Columns {
		quoted[i] = d.Quote(c.Name)
		marks[i] = "?"
	}
	return d.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
}

// reportValues returns the bind values of r in Columns order
func reportValues(r *models.Report) []any {
	values := make([]any, len(Columns))
	for i, c := range Columns {
		values[i] = reportValue(r, c.Name)
	}
	return values
}

func reportValue(r *models.Report, name string) any {
	switch name {
	case models.ColVAERSID:
		return nullString(r.VAERSID)
	case models.ColReceivedDate:
		return nullDate(r.ReceivedDate)
	case models.ColAgeYears:
		if r.AgeYears == nil {
			return nil
		}
		return *r.AgeYears
	case models.ColSex:
		return nullString(r.Sex)
	case models.ColDied:
		return nullString(r.Died)
	case models.ColDiedDate:
		return nullDate(r.DiedDate)
	case models.ColERVisit:
		return nullString(r.ERVisit)
	case models.ColEREDVisit:
		return nullString(r.EREDVisit)
	case models.ColHospital:
		return nullString(r.Hospital)
	case models.ColVaxDate:
		return nullDate(r.VaxDate)
	case models.ColOnsetDate:
		return nullDate(r.OnsetDate)
	case models.ColVaxType:
		return nullString(r.VaxType)
	case models.ColVaxDoseSeries:
		return nullString(r.VaxDoseSeries)
	case models.ColSymptom1:
		return nullString(r.Symptom1)
	case models.ColYear:
		return r.Year
	case models.ColOutcome:
		return nullString(string(r.Outcome))
	default:
		return nullString(r.Attributes[name])
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}
