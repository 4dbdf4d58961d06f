package query

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/commodityavg/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

const successBody = `{"function":"WTI","interval":"daily","start_date":"2023-01-01","end_date":"2023-01-31",` +
	`"average_price":72.33,"currency":"USD per unit",` +
	`"daily_prices":[{"date":"2023-01-03","price":75},{"date":"2023-01-02","price":72},{"date":"2023-01-01","price":70}]}`

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// stubServer replies with the given status, content type and body, and counts calls.
func stubServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func readyController(baseURL string, opts ...Option) *Controller {
	c := NewController(baseURL, opts...)
	c.SetStartDate(date("2023-01-01"))
	c.SetEndDate(date("2023-01-31"))
	return c
}

func mustFailure(t *testing.T, s State) ErrorInfo {
	t.Helper()
	f, ok := s.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %T (%v)", s, s)
	}
	return f.Err
}

// ════════════════════════════════════════════════════════════════════
// Selection
// ════════════════════════════════════════════════════════════════════

func TestNewControllerDefaults(t *testing.T) {
	c := NewController("http://unused")
	p := c.Params()
	if p.Resource != models.ResourceWTI {
		t.Errorf("Resource: got %s, want WTI", p.Resource)
	}
	if p.Interval != models.IntervalDaily {
		t.Errorf("Interval: got %s, want daily", p.Interval)
	}
	if !p.StartDate.IsZero() || !p.EndDate.IsZero() {
		t.Error("dates should start empty")
	}
	if c.State().Kind() != KindIdle {
		t.Errorf("State: got %s, want idle", c.State().Kind())
	}
}

func TestSetResourceResetsInterval(t *testing.T) {
	c := NewController("http://unused")
	for _, info := range models.Resources() {
		// Move the interval off the default first so the reset is observable.
		if err := c.SetInterval(models.AllowedIntervals(c.Params().Resource)[2]); err != nil {
			t.Fatalf("SetInterval: %v", err)
		}
		if err := c.SetResource(info.Code); err != nil {
			t.Fatalf("SetResource(%s): %v", info.Code, err)
		}
		if got := c.Params().Interval; got != info.Intervals[0] {
			t.Errorf("%s: interval got %s, want %s", info.Code, got, info.Intervals[0])
		}
	}
}

func TestSetResourceUnknown(t *testing.T) {
	c := NewController("http://unused")
	err := c.SetResource("GOLD")
	var unknown *ErrUnknownResource
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
	if c.Params().Resource != models.ResourceWTI {
		t.Error("rejected resource must not change the selection")
	}
}

func TestSetIntervalIdempotent(t *testing.T) {
	c := NewController("http://unused")
	before := c.Params()
	if err := c.SetInterval(before.Interval); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if c.Params() != before {
		t.Errorf("params changed: %+v -> %+v", before, c.Params())
	}
	if c.State().Kind() != KindIdle {
		t.Error("state changed")
	}
}

func TestSetIntervalNotAllowed(t *testing.T) {
	c := NewController("http://unused")
	err := c.SetInterval(models.IntervalAnnual)
	var notAllowed *ErrIntervalNotAllowed
	if !errors.As(err, &notAllowed) {
		t.Fatalf("expected ErrIntervalNotAllowed, got %v", err)
	}
	if c.Params().Interval != models.IntervalDaily {
		t.Error("rejected interval must not change the selection")
	}
	if err := c.SetInterval(models.IntervalWeekly); err != nil {
		t.Errorf("weekly should be allowed for WTI: %v", err)
	}
}

func TestSetDates(t *testing.T) {
	c := NewController("http://unused")
	c.SetStartDate(date("2023-01-01"))
	c.SetEndDate(date("2023-06-30"))
	v := c.Params().View()
	if v.StartDate != "2023-01-01" || v.EndDate != "2023-06-30" {
		t.Errorf("View: got %+v", v)
	}
	c.SetEndDate(time.Time{})
	if c.Params().DatesSet() {
		t.Error("zero end date should clear it")
	}
}

// ════════════════════════════════════════════════════════════════════
// Submit
// ════════════════════════════════════════════════════════════════════

func TestSubmitMissingDatesMakesNoRequest(t *testing.T) {
	srv, calls := stubServer(t, http.StatusOK, "application/json", successBody)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"both empty", time.Time{}, time.Time{}},
		{"start empty", time.Time{}, date("2023-01-31")},
		{"end empty", date("2023-01-01"), time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(srv.URL, WithClient(srv.Client()))
			c.SetStartDate(tt.start)
			c.SetEndDate(tt.end)
			e := mustFailure(t, c.Submit(context.Background()))
			if e.Category != CategoryMissingInput {
				t.Errorf("Category: got %s", e.Category)
			}
			if e.Message != MissingDatesMessage {
				t.Errorf("Message: got %q", e.Message)
			}
		})
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotQuery, gotAccept, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, successBody)
	}))
	defer srv.Close()

	c := readyController(srv.URL, WithClient(srv.Client()))
	s := c.Submit(context.Background())

	ok, isSuccess := s.(Success)
	if !isSuccess {
		t.Fatalf("expected Success, got %T: %v", s, s)
	}
	if gotPath != "/daily_average" {
		t.Errorf("path: got %q", gotPath)
	}
	wantQuery := "function=WTI&interval=daily&start_date=2023-01-01&end_date=2023-01-31"
	if gotQuery != wantQuery {
		t.Errorf("query: got %q, want %q", gotQuery, wantQuery)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept: got %q", gotAccept)
	}

	r := ok.Result
	if r.Function != models.ResourceWTI || r.Interval != models.IntervalDaily {
		t.Errorf("function/interval: got %s/%s", r.Function, r.Interval)
	}
	if r.StartDate != "2023-01-01" || r.EndDate != "2023-01-31" {
		t.Errorf("dates: got %s..%s", r.StartDate, r.EndDate)
	}
	if r.AveragePrice != 72.33 || r.Currency != "USD per unit" {
		t.Errorf("average: got %f %s", r.AveragePrice, r.Currency)
	}
	// Order is kept verbatim; sorting is the view's job.
	if len(r.DailyPrices) != 3 || r.DailyPrices[0].Date != "2023-01-03" {
		t.Errorf("daily prices: got %+v", r.DailyPrices)
	}
	if c.State().Kind() != KindSuccess {
		t.Errorf("stored state: got %s", c.State().Kind())
	}
}

func TestSubmitNonJSONResponse(t *testing.T) {
	page := "<html><head><title>502 Bad Gateway</title></head><body>" + strings.Repeat("x", 500) + "</body></html>"
	for _, status := range []int{http.StatusOK, http.StatusBadGateway} {
		srv, _ := stubServer(t, status, "text/html; charset=utf-8", page)
		c := readyController(srv.URL, WithClient(srv.Client()))

		e := mustFailure(t, c.Submit(context.Background()))
		if e.Category != CategoryNonJSONResponse {
			t.Errorf("status %d: Category got %s", status, e.Category)
		}
		if len([]rune(e.Excerpt)) != excerptLen {
			t.Errorf("status %d: excerpt length got %d, want %d", status, len([]rune(e.Excerpt)), excerptLen)
		}
		if !strings.HasPrefix(e.Message, "Received non-JSON response from server. Content-Type: text/html") {
			t.Errorf("status %d: Message got %q", status, e.Message)
		}
		if e.PageTitle != "502 Bad Gateway" {
			t.Errorf("status %d: PageTitle got %q", status, e.PageTitle)
		}
		if e.Status != status {
			t.Errorf("Status: got %d, want %d", e.Status, status)
		}
	}
}

func TestSubmitNonJSONEvenWithJSONBody(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, "text/plain", successBody)
	c := readyController(srv.URL, WithClient(srv.Client()))
	e := mustFailure(t, c.Submit(context.Background()))
	if e.Category != CategoryNonJSONResponse {
		t.Errorf("Category: got %s", e.Category)
	}
	if e.PageTitle != "" {
		t.Errorf("plain text should have no title, got %q", e.PageTitle)
	}
}

func TestSubmitHTTPErrorWithMessage(t *testing.T) {
	srv, _ := stubServer(t, http.StatusNotFound, "application/json", `{"error":"no data"}`)
	c := readyController(srv.URL, WithClient(srv.Client()))

	e := mustFailure(t, c.Submit(context.Background()))
	if e.Category != CategoryHTTPError {
		t.Errorf("Category: got %s", e.Category)
	}
	if e.Message != "no data" {
		t.Errorf("Message: got %q, want %q", e.Message, "no data")
	}
	if e.Status != http.StatusNotFound {
		t.Errorf("Status: got %d", e.Status)
	}
}

func TestSubmitHTTPErrorGenericMessage(t *testing.T) {
	srv, _ := stubServer(t, http.StatusInternalServerError, "application/json", `{}`)
	c := readyController(srv.URL, WithClient(srv.Client()))

	e := mustFailure(t, c.Submit(context.Background()))
	if e.Category != CategoryHTTPError {
		t.Errorf("Category: got %s", e.Category)
	}
	if e.Message != "HTTP error 500" {
		t.Errorf("Message: got %q", e.Message)
	}
}

func TestSubmitMalformedJSON(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest} {
		srv, _ := stubServer(t, status, "application/json", `{"function":`)
		c := readyController(srv.URL, WithClient(srv.Client()))
		e := mustFailure(t, c.Submit(context.Background()))
		if e.Category != CategoryUnknown {
			t.Errorf("status %d: Category got %s", status, e.Category)
		}
		if e.Message == "" {
			t.Errorf("status %d: expected parse error message", status)
		}
	}
}

type errDoer struct{ err error }

func (d errDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

func TestSubmitTransportError(t *testing.T) {
	c := readyController("http://prices.test", WithClient(errDoer{err: errors.New("dial tcp: connection refused")}))
	e := mustFailure(t, c.Submit(context.Background()))
	if e.Category != CategoryUnknown {
		t.Errorf("Category: got %s", e.Category)
	}
	if !strings.Contains(e.Message, "connection refused") {
		t.Errorf("Message: got %q", e.Message)
	}
}

func TestSubmitCancelledContext(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, "application/json", successBody)
	c := readyController(srv.URL, WithClient(srv.Client()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := mustFailure(t, c.Submit(ctx))
	if e.Category != CategoryUnknown {
		t.Errorf("Category: got %s", e.Category)
	}
}

func TestControllerUsableAfterFailure(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, "application/json", successBody)
	c := NewController(srv.URL, WithClient(srv.Client()))

	mustFailure(t, c.Submit(context.Background()))

	c.SetStartDate(date("2023-01-01"))
	c.SetEndDate(date("2023-01-31"))
	if s := c.Submit(context.Background()); s.Kind() != KindSuccess {
		t.Fatalf("expected Success after fixing input, got %s", s.Kind())
	}
	if snap := c.Snapshot(); snap.Error != nil {
		t.Error("prior error should be cleared")
	}
}

// ════════════════════════════════════════════════════════════════════
// Overlapping submissions
// ════════════════════════════════════════════════════════════════════

// gatedDoer holds the first request until release is closed.
type gatedDoer struct {
	inner   *http.Client
	first   sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedDoer) Do(req *http.Request) (*http.Response, error) {
	isFirst := false
	g.first.Do(func() { isFirst = true })
	if isFirst {
		close(g.started)
		<-g.release
	}
	return g.inner.Do(req)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("function") == "BRENT" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"stale"}`)
			return
		}
		_, _ = io.WriteString(w, successBody)
	}))
	defer srv.Close()

	g := &gatedDoer{inner: srv.Client(), started: make(chan struct{}), release: make(chan struct{})}
	c := readyController(srv.URL, WithClient(g))
	if err := c.SetResource(models.ResourceBrent); err != nil {
		t.Fatal(err)
	}

	firstDone := make(chan State, 1)
	go func() { firstDone <- c.Submit(context.Background()) }()
	<-g.started

	if err := c.SetResource(models.ResourceWTI); err != nil {
		t.Fatal(err)
	}
	if s := c.Submit(context.Background()); s.Kind() != KindSuccess {
		t.Fatalf("second submit: got %s", s.Kind())
	}

	close(g.release)
	first := <-firstDone
	if first.Kind() != KindSuccess {
		t.Errorf("stale submit should report the current state, got %s", first.Kind())
	}
	if c.State().Kind() != KindSuccess {
		t.Errorf("stale failure overwrote newer success: %s", c.State().Kind())
	}
}

func TestLoadingWhileInFlight(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, "application/json", successBody)
	g := &gatedDoer{inner: srv.Client(), started: make(chan struct{}), release: make(chan struct{})}
	c := readyController(srv.URL, WithClient(g))

	done := make(chan State, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-g.started

	if c.State().Kind() != KindLoading {
		t.Errorf("expected Loading while in flight, got %s", c.State().Kind())
	}
	close(g.release)
	if s := <-done; s.Kind() != KindSuccess {
		t.Errorf("got %s", s.Kind())
	}
}

func TestSubmitAsyncEntersLoadingBeforeReturning(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, "application/json", successBody)
	g := &gatedDoer{inner: srv.Client(), started: make(chan struct{}), release: make(chan struct{})}
	c := readyController(srv.URL, WithClient(g))

	done := c.SubmitAsync(context.Background())
	if c.State().Kind() != KindLoading {
		t.Errorf("expected Loading right after SubmitAsync, got %s", c.State().Kind())
	}
	close(g.release)
	if s := <-done; s.Kind() != KindSuccess {
		t.Errorf("got %s", s.Kind())
	}
	if _, open := <-done; open {
		t.Error("done channel not closed")
	}
}

// ════════════════════════════════════════════════════════════════════
// Listeners
// ════════════════════════════════════════════════════════════════════

func TestSubscribeSeesTransitions(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, "application/json", successBody)
	c := readyController(srv.URL, WithClient(srv.Client()))

	var kinds []Kind
	unsubscribe := c.Subscribe(func(s State, p Params) {
		kinds = append(kinds, s.Kind())
		if p.Resource != models.ResourceWTI {
			t.Errorf("listener params: got %s", p.Resource)
		}
	})
	c.Submit(context.Background())

	if len(kinds) != 2 || kinds[0] != KindLoading || kinds[1] != KindSuccess {
		t.Errorf("transitions: got %v", kinds)
	}

	unsubscribe()
	c.Submit(context.Background())
	if len(kinds) != 2 {
		t.Errorf("unsubscribed listener still called: %v", kinds)
	}
}
