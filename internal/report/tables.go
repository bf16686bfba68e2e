package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

type mode int

const (
	modeASCII mode = iota
	modeMarkdown
)

func newTable(title string, m mode) table.Writer {
	w := table.NewWriter()
	w.SetTitle(title)
	if m == modeASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m mode) string {
	if m == modeMarkdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

func renderTables(r *Report, m mode) string {
	var sections []string

	sections = append(sections, render(summaryTable(r, m), m))

	if len(r.LabelsByCategory) > 0 {
		sections = append(sections, render(labelTable(r, m), m))
	}
	if len(r.TopCorrelations) > 0 {
		sections = append(sections, render(correlationTable(r.TopCorrelations, m), m))
	}
	if r.Model != nil {
		sections = append(sections, render(modelTable(r.Model, m), m))
	}
	if len(r.CategoryStats) > 0 {
		sections = append(sections, render(categoryTable(r.CategoryStats, m), m))
	}
	for _, p := range r.Profiles {
		if len(p.Deviations) > 0 {
			sections = append(sections, render(profileTable(p, m), m))
		}
	}
	if r.Pressure != nil && len(r.Pressure.Summaries) > 0 {
		sections = append(sections, render(pressureTable(r.Pressure, m), m))
	}
	if len(r.Risks) > 0 {
		sections = append(sections, render(riskTable(r.Risks, m), m))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func summaryTable(r *Report, m mode) table.Writer {
	w := newTable("Pipeline run", m)
	w.AppendHeader(table.Row{"Field", "Value"})

	if r.Run != nil {
		w.AppendRow(table.Row{"Run", r.Run.ID})
		w.AppendRow(table.Row{"Source", r.Run.Source})
		w.AppendRow(table.Row{"Status", r.Run.Status})
		if r.Run.Message != "" {
			w.AppendRow(table.Row{"Message", r.Run.Message})
		}
		w.AppendRow(table.Row{"Duration", r.Run.Duration().Round(time.Millisecond)})
	}
	w.AppendSeparator()
	w.AppendRow(table.Row{"Maintenance events (DPF / total)", fmt.Sprintf("%d / %d", r.Data.DPFEvents, r.Data.MaintenanceTotal)})
	w.AppendRow(table.Row{"Sensor records (kept / total)", fmt.Sprintf("%d / %d", r.Data.SensorKept, r.Data.SensorTotal)})
	w.AppendRow(table.Row{"VIN overlap", fmt.Sprintf("%d of %d", r.Data.OverlappingVINs, r.Data.MaintenanceVINs)})
	w.AppendRow(table.Row{"Skipped events", r.SkippedEvents})
	w.AppendRow(table.Row{"Suppressed labels", r.SuppressedLabels})
	w.AppendRow(table.Row{"Feature vectors", fmt.Sprintf("%d / %d (%.1f%%)", r.Extraction.Succeeded, r.Extraction.Attempted, r.Extraction.SuccessRate*100)})

	return w
}

func labelTable(r *Report, m mode) table.Writer {
	w := newTable("RUL labels", m)
	w.AppendHeader(table.Row{"Category", "Labels"})

	total := 0
	for _, c := range sortedCategories(r.LabelsByCategory) {
		w.AppendRow(table.Row{c, r.LabelsByCategory[c]})
		total += r.LabelsByCategory[c]
	}
	w.AppendFooter(table.Row{"Total", total})
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return w
}

func correlationTable(corrs []models.FeatureCorrelation, m mode) table.Writer {
	w := newTable("Feature correlation with RUL", m)
	w.AppendHeader(table.Row{"#", "Feature", "r"})
	for i, c := range corrs {
		w.AppendRow(table.Row{i + 1, c.Feature, fmt.Sprintf("%+.3f", c.Correlation)})
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	return w
}

func modelTable(rep *models.ModelReport, m mode) table.Writer {
	w := newTable("Explainable model", m)
	w.AppendHeader(table.Row{"Feature", "Coefficient", "Correlation", "Effect on RUL"})
	for _, c := range rep.Coefficients {
		w.AppendRow(table.Row{c.Feature, fmt.Sprintf("%+.2f", c.Coefficient), fmt.Sprintf("%+.3f", c.Correlation), c.Direction})
	}
	w.AppendFooter(table.Row{
		"Intercept " + fmt.Sprintf("%.1f", rep.Intercept),
		fmt.Sprintf("train MAE %.1f R² %.2f", rep.Train.MAE, rep.Train.R2),
		fmt.Sprintf("test MAE %.1f R² %.2f", rep.Test.MAE, rep.Test.R2),
		fmt.Sprintf("%d samples", rep.Samples),
	})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return w
}

func categoryTable(stats []models.CategoryStat, m mode) table.Writer {
	w := newTable("RUL by category", m)
	w.AppendHeader(table.Row{"Category", "Samples", "Mean RUL", "Std"})
	for _, s := range stats {
		w.AppendRow(table.Row{s.Category, s.Count, fmt.Sprintf("%.1f", s.MeanRUL), fmt.Sprintf("%.1f", s.StdRUL)})
	}
	return w
}

func profileTable(p models.CategoryProfile, m mode) table.Writer {
	w := newTable(fmt.Sprintf("%s profile (%d samples)", p.Category, p.Samples), m)
	w.AppendHeader(table.Row{"Feature", "Category mean", "Overall mean", "Diff", "Reading"})
	for _, d := range p.Deviations {
		w.AppendRow(table.Row{d.Feature, fmt.Sprintf("%.3f", d.CategoryMean), fmt.Sprintf("%.3f", d.OverallMean), fmt.Sprintf("%+.1f%%", d.DiffPercent), d.Interpretation})
	}
	return w
}

func pressureTable(p *models.PressureReport, m mode) table.Writer {
	w := newTable("Exhaust pressure before maintenance", m)
	w.AppendHeader(table.Row{"Job type", "Events", "Mean of means", "Max"})
	for _, s := range p.ByJobType {
		w.AppendRow(table.Row{s.JobType, s.Events, fmt.Sprintf("%.2f", s.MeanOfMeans), fmt.Sprintf("%.2f", s.MaxPressure)})
	}
	w.AppendFooter(table.Row{
		"Normal band",
		"",
		fmt.Sprintf("%.2f .. %.2f", p.LowerBound, p.UpperBound),
		fmt.Sprintf("%d anomalies", p.Anomalies),
	})
	return w
}

func riskTable(risks []models.VehicleRisk, m mode) table.Writer {
	w := newTable("Fleet DPF risk", m)
	w.AppendHeader(table.Row{"VIN", "Vehicle", "Predicted RUL", "Level", "Top driver"})
	for _, r := range risks {
		driver := ""
		if len(r.Drivers) > 0 {
			driver = fmt.Sprintf("%s (%+.1f d)", r.Drivers[0].Feature, r.Drivers[0].Contribution)
		}
		w.AppendRow(table.Row{r.VIN, r.VehicleNumber, fmt.Sprintf("%.0f d", r.PredictedRULDays), r.Level, driver})
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	return w
}
