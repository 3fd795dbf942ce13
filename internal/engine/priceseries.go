package engine

import (
	"sort"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// series is one date-indexed value table, kept sorted ascending by date.
type series struct {
	dates  []time.Time
	values []float64
}

// asOf returns the value on the given day or the most recent value before it.
// Binary search keeps lookups O(log n); reconstruction queries this for every
// (date, held instrument) pair.
func (s *series) asOf(day time.Time) (float64, bool) {
	// First index strictly after the query date; the answer sits just before it.
	i := sort.Search(len(s.dates), func(i int) bool {
		return s.dates[i].After(day)
	})
	if i == 0 {
		return 0, false
	}
	return s.values[i-1], true
}

func (s *series) append(day time.Time, v float64) {
	// Duplicate dates keep the last observation, matching upsert semantics of
	// the price tables.
	if n := len(s.dates); n > 0 && s.dates[n-1].Equal(day) {
		s.values[n-1] = v
		return
	}
	s.dates = append(s.dates, day)
	s.values = append(s.values, v)
}

func (s *series) sort() {
	sort.Sort(bySeriesDate{s})
}

type bySeriesDate struct{ *series }

func (s bySeriesDate) Len() int           { return len(s.dates) }
func (s bySeriesDate) Less(i, j int) bool { return s.dates[i].Before(s.dates[j]) }
func (s bySeriesDate) Swap(i, j int) {
	s.dates[i], s.dates[j] = s.dates[j], s.dates[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// PriceSeries is a per-instrument, date-indexed table of closing prices plus a
// parallel date-indexed FX-rate table. Both are sparse (weekends and holidays
// absent) and resolved with carry-forward lookup. Read-only after construction.
type PriceSeries struct {
	prices map[string]*series
	fx     series
}

// NewPriceSeries indexes the given observations. Observation order does not
// matter; each per-ticker series is sorted once at construction.
func NewPriceSeries(prices []model.PriceObservation, fx []model.FxObservation) *PriceSeries {
	ps := &PriceSeries{prices: make(map[string]*series)}

	for _, p := range prices {
		s, ok := ps.prices[p.Ticker]
		if !ok {
			s = &series{}
			ps.prices[p.Ticker] = s
		}
		s.dates = append(s.dates, Day(p.Date))
		s.values = append(s.values, p.ClosePrice)
	}
	for _, s := range ps.prices {
		s.sort()
	}

	for _, f := range fx {
		ps.fx.dates = append(ps.fx.dates, Day(f.Date))
		ps.fx.values = append(ps.fx.values, f.Rate)
	}
	ps.fx.sort()

	return ps
}

// PriceOnOrBefore returns the latest known closing price for the ticker on or
// before the given date. The price is in the instrument's trading currency.
// Returns false when no observation exists on or before the date; callers must
// treat the instrument as unpriced, not as worth zero.
func (ps *PriceSeries) PriceOnOrBefore(ticker string, date time.Time) (float64, bool) {
	s, ok := ps.prices[ticker]
	if !ok {
		return 0, false
	}
	return s.asOf(Day(date))
}

// FxOnOrBefore returns the latest known exchange rate (home per foreign unit)
// on or before the given date.
func (ps *PriceSeries) FxOnOrBefore(date time.Time) (float64, bool) {
	return ps.fx.asOf(Day(date))
}

// LatestPrice returns the most recent closing price regardless of date,
// used for current-holdings valuation.
func (ps *PriceSeries) LatestPrice(ticker string) (float64, bool) {
	s, ok := ps.prices[ticker]
	if !ok || len(s.dates) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

// Dates returns the sorted unique union of all price observation dates. This
// is the natural date axis for valuation reconstruction: holdings only change
// on trade dates and valuations only change on price dates.
func (ps *PriceSeries) Dates() []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, s := range ps.prices {
		for _, d := range s.dates {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Day truncates a timestamp to its calendar day in UTC. All engine date
// comparisons are day-granular.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
