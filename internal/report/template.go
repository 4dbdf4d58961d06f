package report

// ReportTemplate is the HTML template for the standalone report.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
         color: #1a1a2e; max-width: 760px; margin: 0 auto; padding: 20px; line-height: 1.5; }
  h1 { font-size: 1.4rem; border-bottom: 3px solid #2563eb; padding-bottom: 8px; }
  h2 { font-size: 1.1rem; margin-top: 24px; }
  .muted { color: #6b7280; font-size: 0.85rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 8px; }
  th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #e5e7eb; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .avg { font-size: 1.3rem; font-weight: 600; color: #2563eb; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="muted">Generated {{.GeneratedAt}}</p>

<h2>Results</h2>
<table class="summary">
  <tr><th>Resource</th><td>{{.Resource}} ({{.Label}})</td></tr>
  <tr><th>Interval</th><td>{{.Interval}}</td></tr>
  <tr><th>Start Date</th><td>{{.StartDate}}</td></tr>
  <tr><th>End Date</th><td>{{.EndDate}}</td></tr>
  <tr><th>Average Price</th><td class="avg">{{.AveragePrice}} {{.Currency}}</td></tr>
</table>

<h2>Price Trend</h2>
<div class="chart">{{.ChartSVG}}</div>

{{if .Points}}
<h2>Daily Prices</h2>
<p class="muted">Low {{.Low}} · High {{.High}}</p>
<table class="prices">
  <tr><th>Date</th><th>Price</th></tr>
  {{range .Points}}<tr><td>{{.Date}}</td><td class="num">{{printf "%.2f" .Price}}</td></tr>
  {{end}}
</table>
{{end}}
</body>
</html>
`
