package extraction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// ErrMissingFiles is reported for a year whose file triad is incomplete
var ErrMissingFiles = errors.New("missing files")

// DroppedColumns are administrative columns removed before storage
var DroppedColumns = []string{"V_ADMINBY", "V_FUNDBY", "FORM_VERS", "LAB_DATA", "SPLTTYPE", "TODAYS_DATE", "OFC_VISIT"}

// RequiredColumns must be present and non-empty for a row to be stored
var RequiredColumns = []string{models.ColVAERSID, models.ColReceivedDate, models.ColAgeYears}

var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02"}

// Appender stores one year's reports
type Appender interface {
	Append(ctx context.Context, reports []models.Report) (int64, error)
}

// YearStatus is the outcome of processing one year
type YearStatus string

const (
	StatusIngested YearStatus = "ingested"
	StatusSkipped  YearStatus = "skipped"
	StatusFailed   YearStatus = "failed"
)

// YearResult reports what happened to one year
type YearResult struct {
	Year   int
	Status YearStatus
	Rows   int64
	Err    error
}

// Options configures a Pipeline
type Options struct {
	DataDir  string
	Encoding string
	// LegacyDateCopy fills VAX_DATE and ONSET_DATE from DATEDIED
	LegacyDateCopy bool
}

// Pipeline loads yearly VAERS file triads into the fact store
type Pipeline struct {
	opts     Options
	encoding encoding.Encoding
	store    Appender
	logger   *zap.Logger
}

// NewPipeline creates a new extraction pipeline
func NewPipeline(opts Options, store Appender, logger *zap.Logger) (*Pipeline, error) {
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	return &Pipeline{opts: opts, encoding: enc, store: store, logger: logger}, nil
}

// Years returns the inclusive range from..to
func Years(from, to int) []int {
	var years []int
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}

// TriadPaths returns the data, vaccine and symptom file paths for a year
func TriadPaths(dir string, year int) (data, vax, symptoms string) {
	return filepath.Join(dir, fmt.Sprintf("%dVAERSDATA.csv", year)),
		filepath.Join(dir, fmt.Sprintf("%dVAERSVAX.csv", year)),
		filepath.Join(dir, fmt.Sprintf("%dVAERSSYMPTOMS.csv", year))
}

// Run processes the years in order. A failing year is logged and does not stop
// the remaining years.
func (p *Pipeline) Run(ctx context.Context, years []int) []YearResult {
	logger := p.logger.With(zap.String("run_id", uuid.New().String()))
	if p.opts.LegacyDateCopy {
		logger.Warn("Legacy date copy enabled: VAX_DATE and ONSET_DATE will hold DATEDIED")
	}

	results := make([]YearResult, 0, len(years))
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			results = append(results, YearResult{Year: year, Status: StatusFailed, Err: err})
			continue
		}

		result := p.RunYear(ctx, year, logger)
		switch result.Status {
		case StatusIngested:
			logger.Info("Year ingested", zap.Int("year", year), zap.Int64("rows", result.Rows))
		case StatusSkipped:
			logger.Warn("Missing files for year", zap.Int("year", year), zap.Error(result.Err))
		case StatusFailed:
			logger.Error("Error processing year", zap.Int("year", year), zap.Error(result.Err))
		}
		results = append(results, result)
	}
	return results
}

// RunYear processes a single year
func (p *Pipeline) RunYear(ctx context.Context, year int, logger *zap.Logger) YearResult {
	if logger == nil {
		logger = p.logger
	}
	logger = logger.With(zap.Int("year", year))

	dataPath, vaxPath, symptomsPath := TriadPaths(p.opts.DataDir, year)
	var missing []string
	for _, path := range []string{dataPath, vaxPath, symptomsPath} {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, filepath.Base(path))
		}
	}
	if len(missing) > 0 {
		return YearResult{
			Year:   year,
			Status: StatusSkipped,
			Err:    fmt.Errorf("%w: %s", ErrMissingFiles, strings.Join(missing, ", ")),
		}
	}

	reports, err := p.load(dataPath, vaxPath, symptomsPath, year, logger)
	if err != nil {
		return YearResult{Year: year, Status: StatusFailed, Err: err}
	}

	n, err := p.store.Append(ctx, reports)
	if err != nil {
		return YearResult{Year: year, Status: StatusFailed, Err: fmt.Errorf("failed to store reports: %w", err)}
	}
	return YearResult{Year: year, Status: StatusIngested, Rows: n}
}

func (p *Pipeline) load(dataPath, vaxPath, symptomsPath string, year int, logger *zap.Logger) ([]models.Report, error) {
	frames := make([]*Frame, 3)
	for i, path := range []string{dataPath, vaxPath, symptomsPath} {
		frame, stats, err := ReadCSVFile(path, p.encoding)
		if err != nil {
			return nil, err
		}
		if stats.Malformed > 0 || stats.Ragged > 0 {
			logger.Warn("Skipped or fitted malformed records",
				zap.String("file", filepath.Base(path)),
				zap.Int("malformed", stats.Malformed),
				zap.Int("ragged", stats.Ragged))
		}
		frames[i] = frame
	}

	merged, err := frames[0].LeftJoin(frames[1], models.ColVAERSID)
	if err != nil {
		return nil, fmt.Errorf("failed to join vaccines: %w", err)
	}
	merged, err = merged.LeftJoin(frames[2], models.ColVAERSID)
	if err != nil {
		return nil, fmt.Errorf("failed to join symptoms: %w", err)
	}

	merged.WithConstant(models.ColYear, strconv.Itoa(year))
	duplicates := merged.DropDuplicates()
	incomplete, err := merged.DropMissing(RequiredColumns...)
	if err != nil {
		return nil, err
	}
	merged.DropColumns(DroppedColumns...)

	logger.Debug("Prepared merged frame",
		zap.Int("rows", merged.Len()),
		zap.Int("duplicates", duplicates),
		zap.Int("incomplete", incomplete))

	return p.buildReports(merged, year, logger), nil
}

func (p *Pipeline) buildReports(f *Frame, year int, logger *zap.Logger) []models.Report {
	var ignored []string
	for _, c := range f.Columns {
		if !factstore.HasColumn(c) {
			ignored = append(ignored, c)
		}
	}
	if len(ignored) > 0 {
		logger.Debug("Ignoring columns outside the fact table", zap.Strings("columns", ignored))
	}

	attrs := make(map[string]int)
	for _, c := range models.PassThroughColumns {
		if i := f.ColumnIndex(c); i >= 0 {
			attrs[c] = i
		}
	}

	get := func(row []string, col string) string {
		if i := f.ColumnIndex(col); i >= 0 {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	reports := make([]models.Report, 0, f.Len())
	for _, row := range f.Rows {
		r := models.Report{
			VAERSID:       get(row, models.ColVAERSID),
			ReceivedDate:  parseDate(get(row, models.ColReceivedDate)),
			AgeYears:      parseAge(get(row, models.ColAgeYears)),
			Sex:           get(row, models.ColSex),
			Died:          get(row, models.ColDied),
			DiedDate:      parseDate(get(row, models.ColDiedDate)),
			ERVisit:       get(row, models.ColERVisit),
			EREDVisit:     get(row, models.ColEREDVisit),
			Hospital:      get(row, models.ColHospital),
			VaxType:       get(row, models.ColVaxType),
			VaxDoseSeries: get(row, models.ColVaxDoseSeries),
			Symptom1:      get(row, models.ColSymptom1),
			Year:          year,
		}
		if p.opts.LegacyDateCopy {
			r.VaxDate = r.DiedDate
			r.OnsetDate = r.DiedDate
		} else {
			r.VaxDate = parseDate(get(row, models.ColVaxDate))
			r.OnsetDate = parseDate(get(row, models.ColOnsetDate))
		}
		r.Outcome = models.DeriveOutcome(r.Hospital, r.ERVisit, r.EREDVisit, r.Died)

		if len(attrs) > 0 {
			r.Attributes = make(map[string]string, len(attrs))
			for name, i := range attrs {
				if row[i] != "" {
					r.Attributes[name] = row[i]
				}
			}
		}
		reports = append(reports, r)
	}
	return reports
}

// parseDate returns nil for empty or unparseable values
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// parseAge returns nil for empty or non-numeric values
func parseAge(value string) *float64 {
	if value == "" {
		return nil
	}
	age, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(age) || math.IsInf(age, 0) {
		return nil
	}
	return &age
}
