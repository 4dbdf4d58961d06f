package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// ErrNoChartData is returned when no point of a series has a usable date.
var ErrNoChartData = errors.New("no chartable price data")

// PriceTrendPNG renders the series as a PNG time-series chart.
// Points with unparseable dates are skipped.
func PriceTrendPNG(points []models.DailyPrice, width, height int) ([]byte, error) {
	var xs []time.Time
	var ys []float64
	for _, p := range points {
		t, err := utils.ParseDate(p.Date)
		if err != nil || t.IsZero() {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, p.Price)
	}
	if len(xs) == 0 {
		return nil, ErrNoChartData
	}
	// go-chart rejects a zero-width x range; stretch a lone point over a day.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	line := drawing.ColorFromHex("8884d8")
	series := chart.TimeSeries{
		Name:    "price",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: line,
			StrokeWidth: 2,
			DotColor:    line,
			DotWidth:    3,
		},
	}

	yAxis := chart.YAxis{Name: "price"}
	lo, hi := ys[0], ys[0]
	for _, y := range ys {
		lo, hi = min(lo, y), max(hi, y)
	}
	if hi-lo < 1e-9 {
		yAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := chart.Chart{
		Title:      "Price Trend",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      yAxis,
		Series:     []chart.Series{series},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render png chart: %w", err)
	}
	return buf.Bytes(), nil
}
