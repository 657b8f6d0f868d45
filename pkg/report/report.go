package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"github.com/vaersinsight/vaersinsight/pkg/extraction"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

func table(w io.Writer, title string, header []string, rows [][]string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (no matching reports)")
		return
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
}

func count(n int64) string {
	return strconv.FormatInt(n, 10)
}

func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// Dashboard renders every aggregate view as tables and the yearly totals as a chart
func Dashboard(w io.Writer, d *models.Dashboard) {
	f := d.Filters
	fmt.Fprintf(w, "VAERS dashboard  sex=%s outcome=%s age=%d-%d years=%d-%d\n",
		f.Sex, f.Outcome, f.AgeMin, f.AgeMax, f.YearMin, f.YearMax)

	rows := make([][]string, len(d.Outcomes))
	for i, o := range d.Outcomes {
		rows[i] = []string{o.Outcome, count(o.Count)}
	}
	table(w, "Distribution of Outcomes", []string{"Outcome", "Reports"}, rows)

	rows = make([][]string, len(d.VaxTypes))
	for i, v := range d.VaxTypes {
		rows[i] = []string{v.VaxType, count(v.Count)}
	}
	table(w, "Top Vaccine Types Reported", []string{"Vaccine type", "Reports"}, rows)

	YearlyChart(w, d.OverTime)

	rows = make([][]string, len(d.TopCombos))
	for i, c := range d.TopCombos {
		rows[i] = []string{c.Label, count(c.Count)}
	}
	table(w, "Top 10 Vaccines/Reactions", []string{"Vaccine - symptom", "Reports"}, rows)

	rows = make([][]string, len(d.TopSymptoms))
	for i, s := range d.TopSymptoms {
		rows[i] = []string{s.Symptom, count(s.Count)}
	}
	table(w, "Top 10 Overall Reactions", []string{"Symptom", "Reports"}, rows)

	rows = make([][]string, len(d.SeriousByAge))
	for i, a := range d.SeriousByAge {
		rows[i] = []string{a.AgeGroup, count(a.Count)}
	}
	table(w, "Age Distribution of Serious Outcomes", []string{"Age group", "Reports"}, rows)
}

// YearlyChart plots total reports per year. Fewer than two years are shown as
// a table only.
func YearlyChart(w io.Writer, series []models.YearVaxCount) {
	totals := make(map[int]int64)
	for _, p := range series {
		totals[p.Year] += p.Count
	}
	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	rows := make([][]string, len(years))
	points := make([]float64, len(years))
	for i, y := range years {
		rows[i] = []string{strconv.Itoa(y), count(totals[y])}
		points[i] = float64(totals[y])
	}
	table(w, "Adverse Reactions Reported Over Time", []string{"Year", "Reports"}, rows)

	if len(points) >= 2 {
		caption := fmt.Sprintf("reports per year, %d-%d", years[0], years[len(years)-1])
		fmt.Fprintln(w, asciigraph.Plot(points, asciigraph.Height(10), asciigraph.Caption(caption)))
	}
}

// Preview renders fact table rows
func Preview(w io.Writer, t *models.Table) {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			if v != nil {
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	table(w, fmt.Sprintf("Data preview (%d rows)", len(rows)), t.Columns, rows)
}

// Prediction renders a prediction and its class probabilities
func Prediction(w io.Writer, r *models.PredictionResult) {
	fmt.Fprintf(w, "Predicted Outcome: %s\n", r.Predicted)
	fmt.Fprintf(w, "Confidence: %s\n", percent(r.Confidence))

	rows := make([][]string, len(r.Probabilities))
	for i, p := range r.Probabilities {
		rows[i] = []string{p.Class, percent(p.Probability)}
	}
	table(w, "Class probabilities", []string{"Outcome", "Probability"}, rows)
}

// Evaluation renders hold-out accuracy and the confusion matrix
func Evaluation(w io.Writer, e *mlmodel.Evaluation) {
	fmt.Fprintf(w, "Hold-out rows: %d (skipped %d with unseen outcomes)\n", e.TestRows, e.Skipped)
	fmt.Fprintf(w, "Accuracy: %s\n", percent(e.Accuracy))
	fmt.Fprintf(w, "Mean confidence: %s\n", percent(e.MeanConfidence))

	header := append([]string{"actual \\ predicted"}, e.Classes...)
	header = append(header, "precision", "recall")
	rows := make([][]string, len(e.Classes))
	for i, c := range e.Classes {
		row := []string{c}
		for j := range e.Classes {
			row = append(row, strconv.Itoa(int(e.Confusion.At(i, j))))
		}
		rows[i] = append(row, percent(e.Precision[i]), percent(e.Recall[i]))
	}
	table(w, "Confusion matrix", header, rows)
}

// Extraction renders the per-year outcome of an extraction run
func Extraction(w io.Writer, results []extraction.YearResult) {
	rows := make([][]string, len(results))
	var total int64
	for i, r := range results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		rows[i] = []string{strconv.Itoa(r.Year), string(r.Status), count(r.Rows), msg}
		total += r.Rows
	}
	table(w, fmt.Sprintf("Extraction (%d rows stored)", total), []string{"Year", "Status", "Rows", "Message"}, rows)
}
