package factstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// PreviewLimit caps the number of rows returned by Preview
const PreviewLimit = 100

// TopLimit is the number of entries in the top-N views
const TopLimit = 10

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", TableName, err)
	}
	return rows, nil
}

// OutcomeCounts returns the outcome distribution for rows matching p
func (s *Store) OutcomeCounts(ctx context.Context, p Predicate) ([]models.OutcomeCount, error) {
	q := s.dialect.Quote
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) AS cnt FROM %[2]s WHERE %[3]s GROUP BY %[1]s ORDER BY cnt DESC, %[1]s",
		q(models.ColOutcome), TableName, p.SQL), p.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.OutcomeCount{}
	for rows.Next() {
		var outcome sql.NullString
		var c models.OutcomeCount
		if err := rows.Scan(&outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		c.Outcome = outcome.String
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// VaxTypeCounts returns report counts per vaccine type, most frequent first
func (s *Store) VaxTypeCounts(ctx context.Context, p Predicate) ([]models.VaxTypeCount, error) {
	q := s.dialect.Quote
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) AS cnt FROM %[2]s WHERE %[3]s GROUP BY %[1]s ORDER BY cnt DESC, %[1]s",
		q(models.ColVaxType), TableName, p.SQL), p.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.VaxTypeCount{}
	for rows.Next() {
		var vaxType sql.NullString
		var c models.VaxTypeCount
		if err := rows.Scan(&vaxType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan vaccine type count: %w", err)
		}
		c.VaxType = vaxType.String
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// YearVaxCounts returns report counts per year and vaccine type
func (s *Store) YearVaxCounts(ctx context.Context, p Predicate) ([]models.YearVaxCount, error) {
	q := s.dialect.Quote
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s, %[2]s, COUNT(*) AS cnt FROM %[3]s WHERE %[4]s GROUP BY %[1]s, %[2]s ORDER BY %[1]s ASC, cnt DESC, %[2]s",
		q(models.ColYear), q(models.ColVaxType), TableName, p.SQL), p.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.YearVaxCount{}
	for rows.Next() {
		var year sql.NullInt64
		var vaxType sql.NullString
		var c models.YearVaxCount
		if err := rows.Scan(&year, &vaxType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan yearly count: %w", err)
		}
		c.Year = int(year.Int64)
		c.VaxType = vaxType.String
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TopCombos returns the most reported vaccine type and primary symptom pairs
func (s *Store) TopCombos(ctx context.Context, p Predicate) ([]models.ComboCount, error) {
	q := s.dialect.Quote
	args := append(append([]any{}, p.Args...), TopLimit)
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s, %[2]s, COUNT(*) AS cnt FROM %[3]s WHERE %[4]s GROUP BY %[1]s, %[2]s ORDER BY cnt DESC, %[1]s, %[2]s LIMIT ?",
		q(models.ColVaxType), q(models.ColSymptom1), TableName, p.SQL), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.ComboCount{}
	for rows.Next() {
		var vaxType, symptom sql.NullString
		var c models.ComboCount
		if err := rows.Scan(&vaxType, &symptom, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan combination count: %w", err)
		}
		c.VaxType = vaxType.String
		c.Symptom = symptom.String
		c.Label = c.VaxType + " - " + c.Symptom
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TopSymptoms returns the most reported primary symptoms
func (s *Store) TopSymptoms(ctx context.Context, p Predicate) ([]models.SymptomCount, error) {
	q := s.dialect.Quote
	args := append(append([]any{}, p.Args...), TopLimit)
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) AS cnt FROM %[2]s WHERE %[3]s AND %[1]s IS NOT NULL GROUP BY %[1]s ORDER BY cnt DESC, %[1]s LIMIT ?",
		q(models.ColSymptom1), TableName, p.SQL), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.SymptomCount{}
	for rows.Next() {
		var c models.SymptomCount
		if err := rows.Scan(&c.Symptom, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan symptom count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// SeriousByAge counts serious outcomes in ten-year age buckets, youngest first
func (s *Store) SeriousByAge(ctx context.Context, p Predicate) ([]models.AgeGroupCount, error) {
	q := s.dialect.Quote
	bucket := s.dialect.ageBucket(models.ColAgeYears)
	args := append([]any{string(models.OutcomeNoSeriousEvent)}, p.Args...)
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s AS bucket, COUNT(*) AS cnt FROM %[2]s WHERE %[3]s <> ? AND %[4]s GROUP BY %[1]s ORDER BY bucket ASC",
		bucket, TableName, q(models.ColOutcome), p.SQL), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.AgeGroupCount{}
	for rows.Next() {
		var b sql.NullFloat64
		var c models.AgeGroupCount
		if err := rows.Scan(&b, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan age group count: %w", err)
		}
		if !b.Valid {
			continue
		}
		c.LowerAge = int(b.Float64) * 10
		c.AgeGroup = fmt.Sprintf("%d-%d", c.LowerAge, c.LowerAge+9)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Preview returns up to limit unmodified rows matching p. The limit is clamped
// to PreviewLimit.
func (s *Store) Preview(ctx context.Context, p Predicate, limit int) (*models.Table, error) {
	if limit <= 0 || limit > PreviewLimit {
		limit = PreviewLimit
	}
	args := append(append([]any{}, p.Args...), limit)
	rows, err := s.query(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT ?", TableName, p.SQL), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	table := &models.Table{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan preview row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	return table, rows.Err()
}

// DistinctVaxTypes returns the sorted non-null vaccine types in the table
func (s *Store) DistinctVaxTypes(ctx context.Context) ([]string, error) {
	q := s.dialect.Quote
	rows, err := s.query(ctx, fmt.Sprintf("SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL",
		q(models.ColVaxType), TableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan vaccine type: %w", err)
		}
		types = append(types, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(types)
	return types, nil
}

// TrainingRows returns the projection read by the trainer. Rows come back in a
// fixed order so a seeded training run sees the same sequence on every database.
func (s *Store) TrainingRows(ctx context.Context) ([]models.TrainingRow, error) {
	q := s.dialect.Quote
	cols := fmt.Sprintf("%s, %s, %s, %s, %s",
		q(models.ColSex), q(models.ColAgeYears), q(models.ColVaxType), q(models.ColVaxDoseSeries), q(models.ColOutcome))
	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT %[1]s FROM %[2]s WHERE %[3]s IS NOT NULL AND %[4]s IS NOT NULL AND %[5]s IS NOT NULL AND %[6]s IS NOT NULL AND %[7]s >= 0 ORDER BY %[1]s",
		cols, TableName, q(models.ColOutcome), q(models.ColSex), q(models.ColVaxType), q(models.ColVaxDoseSeries), q(models.ColAgeYears)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrainingRow
	for rows.Next() {
		var r models.TrainingRow
		if err := rows.Scan(&r.Sex, &r.AgeYears, &r.VaxType, &r.DoseSeries, &r.Outcome); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRows returns the number of rows matching p
func (s *Store) CountRows(ctx context.Context, p Predicate) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", TableName, p.SQL)), p.Args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// CountYear returns the number of rows stored for one report year
func (s *Store) CountYear(ctx context.Context, year int) (int64, error) {
	return s.CountRows(ctx, Predicate{SQL: s.dialect.Quote(models.ColYear) + " = ?", Args: []any{year}})
}
