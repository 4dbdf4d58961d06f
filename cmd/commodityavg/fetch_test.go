package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/seenimoa/commodityavg/internal/query"
	"github.com/seenimoa/commodityavg/pkg/models"
)

const successBody = `{"function":"COPPER","interval":"monthly","start_date":"2023-01-01","end_date":"2023-03-31",` +
	`"average_price":8900.5,"currency":"USD per metric ton","daily_prices":[{"date":"2023-03-01","price":8950},` +
	`{"date":"2023-01-01","price":8800},{"date":"2023-02-01","price":8951.5}]}`

// runCLI executes the root command against a stubbed pricing API.
func runCLI(t *testing.T, backend *httptest.Server, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Chdir(t.TempDir()) // keep any local config or .env out of the run
	t.Setenv("COMMODITYAVG_API_BASE_URL", backend.URL)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		for _, name := range []string{"resource", "interval", "start", "end", "svg", "png", "html", "pdf", "json"} {
			fl := fetchCmd.Flags().Lookup(name)
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
	})
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// recorder collects the raw queries the stub backend received.
type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func backend(t *testing.T, status int, contentType, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.queries = append(rec.queries, r.URL.RawQuery)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestFetchJSONSortsSeries(t *testing.T) {
	srv, queries := backend(t, http.StatusOK, "application/json", successBody)
	out, _, err := runCLI(t, srv, "fetch", "--resource", "COPPER", "--start", "2023-01-01", "--end", "2023-03-31", "--json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q := queries.all(); len(q) != 1 || q[0] != "function=COPPER&interval=monthly&start_date=2023-01-01&end_date=2023-03-31" {
		t.Errorf("queries = %v", q)
	}

	var got models.DailyAverage
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	var dates []string
	for _, p := range got.DailyPrices {
		dates = append(dates, p.Date)
	}
	if strings.Join(dates, ",") != "2023-01-01,2023-02-01,2023-03-01" {
		t.Errorf("dates = %v", dates)
	}
}

func TestFetchTextAndArtifacts(t *testing.T) {
	srv, _ := backend(t, http.StatusOK, "application/json", successBody)
	dir := t.TempDir()
	svgPath := filepath.Join(dir, "chart.svg")
	htmlPath := filepath.Join(dir, "report.html")

	out, _, err := runCLI(t, srv, "fetch", "--resource", "COPPER", "--interval", "quarterly",
		"--start", "2023-01-01", "--end", "2023-03-31", "--svg", svgPath, "--html", htmlPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(out, "Average Price: 8900.50 USD per metric ton") {
		t.Errorf("text output:\n%s", out)
	}
	for _, p := range []string{svgPath, htmlPath} {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
}

func TestFetchMissingDates(t *testing.T) {
	srv, queries := backend(t, http.StatusOK, "application/json", successBody)
	_, errOut, err := runCLI(t, srv, "fetch", "--start", "2023-01-01")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(errOut, query.MissingDatesMessage) {
		t.Errorf("stderr = %q", errOut)
	}
	if q := queries.all(); len(q) != 0 {
		t.Errorf("backend called %d times", len(q))
	}
}

func TestFetchRejectsDisallowedInterval(t *testing.T) {
	srv, _ := backend(t, http.StatusOK, "application/json", successBody)
	_, _, err := runCLI(t, srv, "fetch", "--resource", "WHEAT", "--interval", "daily",
		"--start", "2023-01-01", "--end", "2023-03-31")
	if err == nil {
		t.Fatal("expected error for daily WHEAT")
	}
}

func TestPrintFailureGuidance(t *testing.T) {
	var buf bytes.Buffer
	printFailure(&buf, query.ErrorInfo{
		Message:  "API limit reached",
		Category: query.CategoryHTTPError,
	})
	if !strings.Contains(buf.String(), query.PremiumURL) {
		t.Errorf("output = %q", buf.String())
	}
}
