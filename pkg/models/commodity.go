// Package models defines the data structures shared across commodityavg:
// the resource catalogue and the wire shapes of the pricing API.
package models

import "fmt"

// Resource is a commodity code understood by the pricing API.
type Resource string

const (
	ResourceWTI        Resource = "WTI"
	ResourceBrent      Resource = "BRENT"
	ResourceNaturalGas Resource = "NATURAL_GAS"
	ResourceCopper     Resource = "COPPER"
	ResourceAluminum   Resource = "ALUMINUM"
	ResourceWheat      Resource = "WHEAT"
	ResourceCorn       Resource = "CORN"
	ResourceCotton     Resource = "COTTON"
	ResourceSugar      Resource = "SUGAR"
	ResourceCoffee     Resource = "COFFEE"
)

// Interval is an aggregation granularity.
type Interval string

const (
	IntervalDaily     Interval = "daily"
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
	IntervalAnnual    Interval = "annual"
)

var (
	energyIntervals = []Interval{IntervalDaily, IntervalWeekly, IntervalMonthly}
	goodsIntervals  = []Interval{IntervalMonthly, IntervalQuarterly, IntervalAnnual}
)

// ResourceInfo describes one selectable resource.
type ResourceInfo struct {
	Code      Resource   `json:"code"`
	Label     string     `json:"label"` // e.g., "Crude Oil (WTI)"
	Intervals []Interval `json:"intervals"`
}

// catalogue keeps display order; the first interval of each entry is the default.
var catalogue = []ResourceInfo{
	{ResourceWTI, "Crude Oil (WTI)", energyIntervals},
	{ResourceBrent, "Crude Oil (Brent)", energyIntervals},
	{ResourceNaturalGas, "Natural Gas", energyIntervals},
	{ResourceCopper, "Copper", goodsIntervals},
	{ResourceAluminum, "Aluminium", goodsIntervals},
	{ResourceWheat, "Wheat", goodsIntervals},
	{ResourceCorn, "Corn", goodsIntervals},
	{ResourceCotton, "Cotton", goodsIntervals},
	{ResourceSugar, "Sugar", goodsIntervals},
	{ResourceCoffee, "Coffee", goodsIntervals},
}

// Resources returns the full catalogue in display order.
func Resources() []ResourceInfo {
	out := make([]ResourceInfo, len(catalogue))
	for i, info := range catalogue {
		info.Intervals = append([]Interval(nil), info.Intervals...)
		out[i] = info
	}
	return out
}

// LookupResource returns the catalogue entry for r.
func LookupResource(r Resource) (ResourceInfo, bool) {
	for _, info := range catalogue {
		if info.Code == r {
			return info, true
		}
	}
	return ResourceInfo{}, false
}

// ParseResource converts a user supplied code into a Resource.
func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	if _, ok := LookupResource(r); !ok {
		return "", fmt.Errorf("invalid resource: %s", s)
	}
	return r, nil
}

// AllowedIntervals returns the intervals valid for r, or nil for an unknown resource.
func AllowedIntervals(r Resource) []Interval {
	info, ok := LookupResource(r)
	if !ok {
		return nil
	}
	return append([]Interval(nil), info.Intervals...)
}

// DefaultInterval is the first allowed interval for r.
func DefaultInterval(r Resource) Interval {
	info, ok := LookupResource(r)
	if !ok || len(info.Intervals) == 0 {
		return ""
	}
	return info.Intervals[0]
}

// IntervalAllowed reports whether i is valid for r.
func IntervalAllowed(r Resource, i Interval) bool {
	for _, allowed := range AllowedIntervals(r) {
		if allowed == i {
			return true
		}
	}
	return false
}

// Label returns the display label, falling back to the code.
func (r Resource) Label() string {
	if info, ok := LookupResource(r); ok {
		return info.Label
	}
	return string(r)
}

// Title returns the interval capitalised for display ("Daily").
func (i Interval) Title() string {
	if i == "" {
		return ""
	}
	s := string(i)
	return string(s[0]-'a'+'A') + s[1:]
}
