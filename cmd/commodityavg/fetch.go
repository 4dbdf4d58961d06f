package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/commodityavg/internal/query"
	"github.com/seenimoa/commodityavg/internal/report"
	"github.com/seenimoa/commodityavg/internal/view"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the average price for a resource and date range",
	Long: `Fetch the average price of a resource between two dates and print the
result with its date-ordered daily series. Charts and reports can be
written alongside.`,
	Example: `  commodityavg fetch --resource WTI --interval weekly --start 2024-01-01 --end 2024-03-31
  commodityavg fetch --resource COPPER --start 2023-01-01 --end 2023-12-31 --png copper.png --html copper.html`,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("resource", string(models.ResourceWTI), "resource code (see `commodityavg resources`)")
	f.String("interval", "", "interval (default: first allowed for the resource)")
	f.String("start", "", "start date YYYY-MM-DD")
	f.String("end", "", "end date YYYY-MM-DD")
	f.String("svg", "", "write the price trend chart as SVG to this file")
	f.String("png", "", "write the price trend chart as PNG to this file")
	f.String("html", "", "write an HTML report to this file")
	f.String("pdf", "", "write a PDF report to this file (HTML when no converter is installed)")
	f.Bool("json", false, "print the result as JSON")
}

// fetchOutputs are the optional artifact paths of a fetch.
type fetchOutputs struct {
	svg, png, html, pdf string
	json                bool
}

func runFetch(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	resource, _ := f.GetString("resource")
	interval, _ := f.GetString("interval")
	start, _ := f.GetString("start")
	end, _ := f.GetString("end")
	var out fetchOutputs
	out.svg, _ = f.GetString("svg")
	out.png, _ = f.GetString("png")
	out.html, _ = f.GetString("html")
	out.pdf, _ = f.GetString("pdf")
	out.json, _ = f.GetBool("json")

	ctl := query.NewController(cfg.API.BaseURL, query.WithLogger(logger))
	res, err := models.ParseResource(resource)
	if err != nil {
		return err
	}
	if err := ctl.SetResource(res); err != nil {
		return err
	}
	if interval != "" {
		if err := ctl.SetInterval(models.Interval(interval)); err != nil {
			return err
		}
	}
	startDate, err := utils.ParseDate(start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	endDate, err := utils.ParseDate(end)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}
	ctl.SetStartDate(startDate)
	ctl.SetEndDate(endDate)

	st := ctl.Submit(cmd.Context())
	if fail, ok := st.(query.Failure); ok {
		printFailure(cmd.ErrOrStderr(), fail.Err)
		return fmt.Errorf("fetch failed: %s", fail.Err.Category)
	}

	success := st.(query.Success)
	points := view.Series(st)
	stdout := cmd.OutOrStdout()

	if out.json {
		if err := writeJSONResult(stdout, success.Result, points); err != nil {
			return err
		}
	} else {
		text, err := report.GenerateText(&success.Result, points, report.DefaultReportConfig())
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, text)
	}
	return writeArtifacts(cmd, &success.Result, points, out)
}

// printFailure shows the error and any guidance on w.
func printFailure(w io.Writer, e query.ErrorInfo) {
	fmt.Fprintf(w, "Error: %s\n", e.Message)
	if e.PageTitle != "" {
		fmt.Fprintf(w, "  Server page: %s\n", e.PageTitle)
	}
	if g := query.Guidance(e); g != "" {
		fmt.Fprintf(w, "  %s\n", g)
	}
}

// writeJSONResult prints the result with its daily prices in date order.
func writeJSONResult(w io.Writer, result models.DailyAverage, points []models.DailyPrice) error {
	result.DailyPrices = points
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeArtifacts(cmd *cobra.Command, result *models.DailyAverage, points []models.DailyPrice, out fetchOutputs) error {
	chartCfg := report.Sized(cfg.Chart.Width, cfg.Chart.Height)
	log := cmd.ErrOrStderr()

	if out.svg != "" {
		if err := os.WriteFile(out.svg, []byte(report.PriceTrendSVG(points, chartCfg)), 0o644); err != nil {
			return fmt.Errorf("writing SVG chart: %w", err)
		}
		fmt.Fprintf(log, "📈 chart written to %s\n", out.svg)
	}
	if out.png != "" {
		png, err := report.PriceTrendPNG(points, cfg.Chart.Width, cfg.Chart.Height)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out.png, png, 0o644); err != nil {
			return fmt.Errorf("writing PNG chart: %w", err)
		}
		fmt.Fprintf(log, "📈 chart written to %s\n", out.png)
	}
	if out.html == "" && out.pdf == "" {
		return nil
	}

	rcfg := report.DefaultReportConfig()
	rcfg.ChartCfg = chartCfg
	html, err := report.GenerateHTML(result, points, rcfg)
	if err != nil {
		return err
	}
	if out.html != "" {
		if err := os.WriteFile(out.html, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing HTML report: %w", err)
		}
		fmt.Fprintf(log, "📄 report written to %s\n", out.html)
	}
	if out.pdf != "" {
		written, err := report.GeneratePDF(cmd.Context(), html, report.DefaultPDFConfig(out.pdf))
		if err != nil {
			return err
		}
		fmt.Fprintf(log, "📄 report written to %s\n", written)
	}
	return nil
}
