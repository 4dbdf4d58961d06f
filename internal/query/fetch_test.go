package query

import (
	"strings"
	"testing"

	"github.com/seenimoa/commodityavg/internal/infra"
	"github.com/seenimoa/commodityavg/pkg/models"
)

func TestIsJSON(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"application/problem+json", true},
		{"text/html", false},
		{"text/plain; charset=utf-8", false},
		{"", false},
		{"application/json;;bad", true},
	}
	for _, tt := range tests {
		if got := isJSON(tt.ct); got != tt.want {
			t.Errorf("isJSON(%q): got %v, want %v", tt.ct, got, tt.want)
		}
	}
}

func TestClassifyMissingContentType(t *testing.T) {
	s := Classify(&infra.Response{Status: 200, Body: []byte(successBody)})
	f, ok := s.(Failure)
	if !ok || f.Err.Category != CategoryNonJSONResponse {
		t.Fatalf("expected NonJSONResponse, got %v", s)
	}
	if !strings.Contains(f.Err.Message, "Content-Type: (none)") {
		t.Errorf("Message: got %q", f.Err.Message)
	}
}

func TestClassifyHTTPErrorRateLimit(t *testing.T) {
	s := Classify(&infra.Response{
		Status:      429,
		ContentType: "application/json",
		Body:        []byte(`{"error":"API limit reached or invalid key. Message: Thank you for using Alpha Vantage!"}`),
	})
	f, ok := s.(Failure)
	if !ok || f.Err.Category != CategoryHTTPError {
		t.Fatalf("expected HTTPError, got %v", s)
	}
	if g := Guidance(f.Err); !strings.Contains(g, PremiumURL) {
		t.Errorf("rate limit guidance should link the premium page, got %q", g)
	}
}

func TestClassifyNon2xxJSONBodies(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		category Category
		message  string
	}{
		{"array", `[]`, CategoryHTTPError, "HTTP error 502"},
		{"string", `"gateway down"`, CategoryHTTPError, "HTTP error 502"},
		{"numeric error field", `{"error":42}`, CategoryHTTPError, "HTTP error 502"},
		{"empty error field", `{"error":""}`, CategoryHTTPError, "HTTP error 502"},
		{"null", `null`, CategoryHTTPError, "HTTP error 502"},
		{"error message", `{"error":"upstream timeout"}`, CategoryHTTPError, "upstream timeout"},
		{"invalid JSON", `{"error":`, CategoryUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Classify(&infra.Response{
				Status:      502,
				ContentType: "application/json",
				Body:        []byte(tt.body),
			})
			f, ok := s.(Failure)
			if !ok {
				t.Fatalf("expected Failure, got %v", s)
			}
			if f.Err.Category != tt.category {
				t.Errorf("Category: got %s, want %s", f.Err.Category, tt.category)
			}
			if tt.message != "" && f.Err.Message != tt.message {
				t.Errorf("Message: got %q, want %q", f.Err.Message, tt.message)
			}
			if f.Err.Status != 502 {
				t.Errorf("Status: got %d", f.Err.Status)
			}
		})
	}
}

func TestClassifyEmptySeries(t *testing.T) {
	s := Classify(&infra.Response{
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(`{"function":"COPPER","interval":"monthly","average_price":0,"currency":"USD per unit","daily_prices":[]}`),
	})
	ok, isSuccess := s.(Success)
	if !isSuccess {
		t.Fatalf("expected Success, got %v", s)
	}
	if ok.Result.Function != models.ResourceCopper || len(ok.Result.DailyPrices) != 0 {
		t.Errorf("got %+v", ok.Result)
	}
}

func TestRequestURL(t *testing.T) {
	p := Params{
		Resource:  models.ResourceNaturalGas,
		Interval:  models.IntervalWeekly,
		StartDate: date("2022-12-01"),
		EndDate:   date("2023-02-28"),
	}
	got := p.RequestURL("http://localhost:5000")
	want := "http://localhost:5000/daily_average?function=NATURAL_GAS&interval=weekly&start_date=2022-12-01&end_date=2023-02-28"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestGuidance(t *testing.T) {
	tests := []struct {
		name string
		err  ErrorInfo
		want string // substring; "" means no guidance
	}{
		{"missing input", ErrorInfo{Category: CategoryMissingInput, Message: MissingDatesMessage}, "start date"},
		{"non json", ErrorInfo{Category: CategoryNonJSONResponse}, "unexpected error"},
		{"rate limit", ErrorInfo{Category: CategoryHTTPError, Message: "API limit reached or invalid key."}, "upgrading"},
		{"no data", ErrorInfo{Category: CategoryHTTPError, Message: "No valid data available for the specified date range"}, "earlier date range"},
		{"plain http", ErrorInfo{Category: CategoryHTTPError, Message: "no data"}, ""},
		{"unknown", ErrorInfo{Category: CategoryUnknown, Message: "connection refused"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Guidance(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("expected no guidance, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestSnap(t *testing.T) {
	p := DefaultParams()
	p.StartDate = date("2023-01-01")

	idle := Snap(Idle{}, p)
	if idle.Status != KindIdle || idle.Result != nil || idle.Error != nil {
		t.Errorf("idle: got %+v", idle)
	}
	if idle.Params.StartDate != "2023-01-01" || idle.Params.EndDate != "" {
		t.Errorf("params view: got %+v", idle.Params)
	}

	succ := Snap(Success{Result: models.DailyAverage{Currency: "USD per unit"}}, p)
	if succ.Status != KindSuccess || succ.Result == nil || succ.Result.Currency != "USD per unit" {
		t.Errorf("success: got %+v", succ)
	}

	fail := Snap(Failure{Err: ErrorInfo{Category: CategoryMissingInput, Message: MissingDatesMessage}}, p)
	if fail.Status != KindFailure || fail.Error == nil || fail.Guidance == "" {
		t.Errorf("failure: got %+v", fail)
	}
	if fail.Error.Error() != MissingDatesMessage {
		t.Errorf("ErrorInfo.Error: got %q", fail.Error.Error())
	}
}
