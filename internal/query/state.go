package query

import (
	"github.com/seenimoa/commodityavg/pkg/models"
)

// Kind names the active State variant.
type Kind string

const (
	KindIdle    Kind = "idle"
	KindLoading Kind = "loading"
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// State is the fetch lifecycle of a controller. Exactly one of Idle, Loading,
// Success or Failure is active; the set is closed to this package.
type State interface {
	Kind() Kind
	isState()
}

// Idle is the state before the first submission.
type Idle struct{}

// Loading is active while request Seq is in flight.
type Loading struct {
	Seq uint64
}

// Success carries the decoded API body verbatim.
type Success struct {
	Result models.DailyAverage
}

// Failure carries the classified error of the last submission.
type Failure struct {
	Err ErrorInfo
}

func (Idle) Kind() Kind    { return KindIdle }
func (Loading) Kind() Kind { return KindLoading }
func (Success) Kind() Kind { return KindSuccess }
func (Failure) Kind() Kind { return KindFailure }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Failure) isState() {}

// Category classifies a failed submission.
type Category string

const (
	CategoryMissingInput    Category = "missing_input"
	CategoryHTTPError       Category = "http_error"
	CategoryNonJSONResponse Category = "non_json_response"
	CategoryUnknown         Category = "unknown"
)

// ErrorInfo describes a failure. Status, ContentType, Excerpt and PageTitle
// are filled only when a response was received.
type ErrorInfo struct {
	Message     string   `json:"message"`
	Category    Category `json:"category"`
	Status      int      `json:"status,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
	PageTitle   string   `json:"page_title,omitempty"`
}

func (e ErrorInfo) Error() string { return e.Message }

// Snapshot is a JSON friendly view of a State.
type Snapshot struct {
	Status   Kind                 `json:"status"`
	Params   ParamsView           `json:"params"`
	Result   *models.DailyAverage `json:"result,omitempty"`
	Error    *ErrorInfo           `json:"error,omitempty"`
	Guidance string               `json:"guidance,omitempty"`
}

// Snap flattens s together with the params it was produced from.
func Snap(s State, p Params) Snapshot {
	snap := Snapshot{Status: s.Kind(), Params: p.View()}
	switch v := s.(type) {
	case Success:
		r := v.Result
		snap.Result = &r
	case Failure:
		e := v.Err
		snap.Error = &e
		snap.Guidance = Guidance(e)
	}
	return snap
}
