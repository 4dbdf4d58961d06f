// Package view derives display data from a controller State.
package view

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/seenimoa/commodityavg/internal/query"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// Series returns the daily prices of a Success state ordered by ascending date.
// Equal dates keep their API order. Dates that do not parse sort after all
// parseable ones. Any other state yields an empty series.
func Series(s query.State) []models.DailyPrice {
	ok, isSuccess := s.(query.Success)
	if !isSuccess {
		return []models.DailyPrice{}
	}
	return SortByDate(ok.Result.DailyPrices)
}

// SortByDate returns a sorted copy of prices; the input is not modified.
func SortByDate(prices []models.DailyPrice) []models.DailyPrice {
	out := make([]models.DailyPrice, len(prices))
	copy(out, prices)

	keys := make([]time.Time, len(out))
	valid := make([]bool, len(out))
	for i, p := range out {
		t, err := utils.ParseDate(p.Date)
		keys[i], valid[i] = t, err == nil && !t.IsZero()
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		switch {
		case valid[ia] && valid[ib]:
			return keys[ia].Before(keys[ib])
		case valid[ia]:
			return true
		default:
			return false
		}
	})

	sorted := make([]models.DailyPrice, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Line is one labelled row of the result summary.
type Line struct {
	Label string
	Value string
}

// Summarize returns the result rows shown above the chart, or nil when the
// state is not Success. The average price is shown as received.
func Summarize(s query.State) []Line {
	ok, isSuccess := s.(query.Success)
	if !isSuccess {
		return nil
	}
	r := ok.Result
	return []Line{
		{"Resource", string(r.Function)},
		{"Interval", string(r.Interval)},
		{"Start Date", r.StartDate},
		{"End Date", r.EndDate},
		{"Average Price", fmt.Sprintf("%s %s", strconv.FormatFloat(r.AveragePrice, 'f', -1, 64), r.Currency)},
	}
}

// Range returns the lowest and highest price of a series.
func Range(points []models.DailyPrice) (lo, hi float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, false
	}
	lo, hi = points[0].Price, points[0].Price
	for _, p := range points[1:] {
		if p.Price < lo {
			lo = p.Price
		}
		if p.Price > hi {
			hi = p.Price
		}
	}
	return lo, hi, true
}
