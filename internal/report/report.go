// Package report renders the outcome of a pipeline run as console tables,
// Markdown, JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Extraction summarizes the feature extraction stage.
type Extraction struct {
	Attempted   int     `json:"attempted" yaml:"attempted"`
	Succeeded   int     `json:"succeeded" yaml:"succeeded"`
	Skipped     int     `json:"skipped" yaml:"skipped"`
	Failed      int     `json:"failed" yaml:"failed"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// Report is the serializable outcome of one pipeline run.
type Report struct {
	Run              *models.PipelineRun         `json:"run" yaml:"run"`
	Data             ingest.PrepareStats         `json:"data" yaml:"data"`
	LabelsByCategory map[models.RULCategory]int  `json:"labels_by_category,omitempty" yaml:"labels_by_category,omitempty"`
	SkippedEvents    int                         `json:"skipped_events" yaml:"skipped_events"`
	SuppressedLabels int                         `json:"suppressed_labels" yaml:"suppressed_labels"`
	Extraction       Extraction                  `json:"extraction" yaml:"extraction"`
	TopCorrelations  []models.FeatureCorrelation `json:"top_correlations,omitempty" yaml:"top_correlations,omitempty"`
	Model            *models.ModelReport         `json:"model,omitempty" yaml:"model,omitempty"`
	CategoryStats    []models.CategoryStat       `json:"category_stats,omitempty" yaml:"category_stats,omitempty"`
	Profiles         []models.CategoryProfile    `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Pressure         *models.PressureReport      `json:"pressure,omitempty" yaml:"pressure,omitempty"`
	Risks            []models.VehicleRisk        `json:"risks,omitempty" yaml:"risks,omitempty"`
}

// Formats lists the accepted values for Render.
func Formats() []string {
	return []string{FormatTable, FormatMarkdown, FormatJSON, FormatYAML}
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatTable, "":
		_, err := io.WriteString(w, renderTables(r, modeASCII))
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, renderTables(r, modeMarkdown))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown"
	default:
		return "text/plain"
	}
}

func sortedCategories(counts map[models.RULCategory]int) []models.RULCategory {
	var out []models.RULCategory
	for _, c := range models.RULCategories {
		if _, ok := counts[c]; ok {
			out = append(out, c)
		}
	}
	var extra []models.RULCategory
	for c := range counts {
		known := false
		for _, k := range models.RULCategories {
			if c == k {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
