package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/seenimoa/commodityavg/internal/view"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// ReportConfig controls report generation.
type ReportConfig struct {
	Title    string      // default: "Commodity Average Report"
	ChartCfg ChartConfig // chart rendering config
	Now      func() time.Time
}

// DefaultReportConfig returns the defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Title:    "Commodity Average Report",
		ChartCfg: DefaultChartConfig(),
		Now:      time.Now,
	}
}

// ReportData is the flattened input of the HTML template and text renderer.
type ReportData struct {
	Title        string
	GeneratedAt  string
	Resource     string
	Label        string
	Interval     string
	StartDate    string
	EndDate      string
	AveragePrice string
	Currency     string
	Points       []models.DailyPrice
	Low, High    string
	ChartSVG     template.HTML
}

var errNilResult = errors.New("result is nil")

// GenerateText renders a terminal report. points should be date ordered.
func GenerateText(result *models.DailyAverage, points []models.DailyPrice, cfg ReportConfig) (string, error) {
	if result == nil {
		return "", errNilResult
	}
	return renderTextReport(buildReportData(result, points, cfg)), nil
}

// GenerateHTML renders a standalone HTML report with an inline SVG chart.
func GenerateHTML(result *models.DailyAverage, points []models.DailyPrice, cfg ReportConfig) (string, error) {
	if result == nil {
		return "", errNilResult
	}
	data := buildReportData(result, points, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func buildReportData(r *models.DailyAverage, points []models.DailyPrice, cfg ReportConfig) ReportData {
	if cfg.Title == "" {
		cfg.Title = DefaultReportConfig().Title
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	data := ReportData{
		Title:        cfg.Title,
		GeneratedAt:  cfg.Now().UTC().Format("02 Jan 2006 15:04 MST"),
		Resource:     string(r.Function),
		Label:        r.Function.Label(),
		Interval:     r.Interval.Title(),
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		AveragePrice: utils.FormatPrice(r.AveragePrice),
		Currency:     r.Currency,
		Points:       points,
		ChartSVG:     template.HTML(PriceTrendSVG(points, cfg.ChartCfg)),
	}
	if lo, hi, ok := view.Range(points); ok {
		data.Low, data.High = utils.FormatPrice(lo), utils.FormatPrice(hi)
	}
	return data
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 50)
	thin := strings.Repeat("─", 50)

	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "  %s\n", d.Title)
	fmt.Fprintf(&sb, "  Generated: %s\n", d.GeneratedAt)
	sb.WriteString(line + "\n")

	fmt.Fprintf(&sb, "  Resource:      %s (%s)\n", d.Resource, d.Label)
	fmt.Fprintf(&sb, "  Interval:      %s\n", d.Interval)
	fmt.Fprintf(&sb, "  Start Date:    %s\n", d.StartDate)
	fmt.Fprintf(&sb, "  End Date:      %s\n", d.EndDate)
	fmt.Fprintf(&sb, "  Average Price: %s %s\n", d.AveragePrice, d.Currency)
	sb.WriteString(thin + "\n")

	if len(d.Points) == 0 {
		sb.WriteString("  No daily prices in range.\n")
	} else {
		fmt.Fprintf(&sb, "  Price Trend (%d points, low %s, high %s)\n", len(d.Points), d.Low, d.High)
		for _, p := range d.Points {
			fmt.Fprintf(&sb, "    %-12s %10s\n", p.Date, utils.FormatPrice(p.Price))
		}
	}
	sb.WriteString(line + "\n")
	return sb.String()
}
