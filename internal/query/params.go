package query

import (
	"net/url"
	"time"

	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// Params is the user's current selection. A zero date means "not selected".
type Params struct {
	Resource  models.Resource
	Interval  models.Interval
	StartDate time.Time
	EndDate   time.Time
}

// DefaultParams returns the selection a new controller starts with.
func DefaultParams() Params {
	return Params{
		Resource: models.ResourceWTI,
		Interval: models.DefaultInterval(models.ResourceWTI),
	}
}

// DatesSet reports whether both dates were chosen.
func (p Params) DatesSet() bool {
	return !p.StartDate.IsZero() && !p.EndDate.IsZero()
}

// RequestURL builds the daily_average URL for p against baseURL.
func (p Params) RequestURL(baseURL string) string {
	return baseURL + "/daily_average" +
		"?function=" + url.QueryEscape(string(p.Resource)) +
		"&interval=" + url.QueryEscape(string(p.Interval)) +
		"&start_date=" + utils.FormatDate(p.StartDate) +
		"&end_date=" + utils.FormatDate(p.EndDate)
}

// ParamsView is Params with dates as YYYY-MM-DD strings.
type ParamsView struct {
	Resource  models.Resource `json:"resource"`
	Interval  models.Interval `json:"interval"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
}

// View converts p for templates and JSON.
func (p Params) View() ParamsView {
	return ParamsView{
		Resource:  p.Resource,
		Interval:  p.Interval,
		StartDate: utils.FormatDate(p.StartDate),
		EndDate:   utils.FormatDate(p.EndDate),
	}
}
