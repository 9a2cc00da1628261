// Package analyze describes the timing and values of a table of dated rows:
// how regularly the rows are spaced, what the values look like and how they
// trend over time. All functions are pure; no I/O.
package analyze

import (
	"fmt"
	"math"
	"sort"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/table"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Cadence ──────────────────────────────────────────────────────────────────

// Cadence names the typical spacing between rows.
type Cadence string

const (
	CadenceSubDaily  Cadence = "sub-daily"
	CadenceDaily     Cadence = "daily"
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
	CadenceIrregular Cadence = "irregular"
	CadenceUnknown   Cadence = "unknown"
)

// cadenceBands maps a median interval in days to a cadence. Calendar months
// and years vary in length so their bands are wide.
var cadenceBands = []struct {
	cadence  Cadence
	min, max float64
}{
	{CadenceDaily, 1, 1},
	{CadenceWeekly, 7, 7},
	{CadenceMonthly, 28, 31},
	{CadenceQuarterly, 89, 92},
	{CadenceAnnual, 365, 366},
}

// Classify names the cadence of a median interval.
func Classify(median timeval.Duration) Cadence {
	days := median.TotalDays()
	switch {
	case days <= 0:
		return CadenceUnknown
	case days < 1:
		return CadenceSubDaily
	}
	for _, b := range cadenceBands {
		if days >= b.min && days <= b.max {
			return b.cadence
		}
	}
	return CadenceIrregular
}

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds the timing and value statistics of a table.
type Summary struct {
	Name           string            `json:"name" yaml:"name"`
	Rows           int               `json:"rows" yaml:"rows"`
	Missing        int               `json:"missing" yaml:"missing"`
	First          timeval.Timestamp `json:"first" yaml:"first"`
	Last           timeval.Timestamp `json:"last" yaml:"last"`
	Span           timeval.Duration  `json:"span" yaml:"span"`
	MinInterval    timeval.Duration  `json:"min_interval" yaml:"min_interval"`
	MedianInterval timeval.Duration  `json:"median_interval" yaml:"median_interval"`
	MaxInterval    timeval.Duration  `json:"max_interval" yaml:"max_interval"`
	Cadence        Cadence           `json:"cadence" yaml:"cadence"`
	Duplicates     int               `json:"duplicates" yaml:"duplicates"` // rows sharing a date with the previous row
	Mean           float64           `json:"mean" yaml:"mean"`
	Std            float64           `json:"std" yaml:"std"`
	Min            float64           `json:"min" yaml:"min"`
	Median         float64           `json:"median" yaml:"median"`
	Max            float64           `json:"max" yaml:"max"`
}

// Summarize computes the summary of rows in any order. Missing values are
// counted but excluded from the value statistics; their dates still count
// toward the timing statistics.
func Summarize(name string, rows []model.Row) (Summary, error) {
	s := Summary{Name: name, Rows: len(rows), Cadence: CadenceUnknown}
	if len(rows) == 0 {
		return s, fmt.Errorf("summary: no rows")
	}

	sorted := table.Sort(rows, false)
	s.First = sorted[0].Date
	s.Last = sorted[len(sorted)-1].Date
	s.Span = s.Last.Sub(s.First)

	if len(sorted) > 1 {
		gaps, err := table.Intervals(sorted)
		if err != nil {
			return s, err
		}
		var positive []timeval.Duration
		for _, g := range gaps {
			if g.Gap.IsZero() {
				s.Duplicates++
				continue
			}
			positive = append(positive, g.Gap)
		}
		if len(positive) > 0 {
			sort.Slice(positive, func(i, j int) bool { return positive[i].Less(positive[j]) })
			s.MinInterval = positive[0]
			s.MaxInterval = positive[len(positive)-1]
			s.MedianInterval = positive[len(positive)/2]
			s.Cadence = Classify(s.MedianInterval)
			if s.Cadence != CadenceIrregular && s.MaxInterval.TotalDays() > 2*s.MedianInterval.TotalDays() {
				s.Cadence = CadenceIrregular
			}
		}
	}

	var vals []float64
	for _, r := range sorted {
		if r.IsMissing() {
			s.Missing++
		} else {
			vals = append(vals, r.Value)
		}
	}
	if len(vals) == 0 {
		s.Mean, s.Std, s.Min, s.Median, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s, nil
	}
	ordered := append([]float64(nil), vals...)
	sort.Float64s(ordered)
	s.Min = ordered[0]
	s.Max = ordered[len(ordered)-1]
	s.Median = percentile(ordered, 50)
	s.Mean = sumF(vals) / float64(len(vals))
	s.Std = stddevF(vals, s.Mean)
	return s, nil
}

// ─── Trend ────────────────────────────────────────────────────────────────────

// TrendMethod selects the regression algorithm.
type TrendMethod string

const (
	TrendLinear   TrendMethod = "linear"
	TrendTheilSen TrendMethod = "theil-sen"
)

// TrendResult is a straight-line fit of value against time.
type TrendResult struct {
	Name         string      `json:"name" yaml:"name"`
	Method       TrendMethod `json:"method" yaml:"method"`
	Points       int         `json:"points" yaml:"points"`
	SlopePerDay  float64     `json:"slope_per_day" yaml:"slope_per_day"`
	SlopePerYear float64     `json:"slope_per_year" yaml:"slope_per_year"` // per 365 days
	Intercept    float64     `json:"intercept" yaml:"intercept"`           // value at the first date
	R2           float64     `json:"r2" yaml:"r2"`
	Direction    string      `json:"direction" yaml:"direction"` // up | down | flat
}

// Trend fits value against elapsed days since the earliest row, measured on
// the spreadsheet serial scale so fractional days count.
func Trend(name string, rows []model.Row, method TrendMethod) (TrendResult, error) {
	tr := TrendResult{Name: name, Method: method}
	switch method {
	case TrendLinear, TrendTheilSen:
	case "":
		tr.Method = TrendLinear
	default:
		return tr, fmt.Errorf("trend: unknown method %q (want linear or theil-sen)", method)
	}

	var pts []point
	sorted := table.Sort(rows, false)
	var origin float64
	for _, r := range sorted {
		if r.IsMissing() {
			continue
		}
		x := r.Date.Serial()
		if len(pts) == 0 {
			origin = x
		}
		pts = append(pts, point{x - origin, r.Value})
	}
	tr.Points = len(pts)
	if len(pts) < 2 {
		return tr, fmt.Errorf("trend: need at least 2 rows with values, got %d", len(pts))
	}

	if tr.Method == TrendTheilSen {
		tr.SlopePerDay = theilSenSlope(pts)
		xMean := meanPts(pts, func(p point) float64 { return p.x })
		yMean := meanPts(pts, func(p point) float64 { return p.y })
		tr.Intercept = yMean - tr.SlopePerDay*xMean
	} else {
		tr.SlopePerDay, tr.Intercept = olsRegress(pts)
	}
	tr.R2 = r2(pts, tr.SlopePerDay, tr.Intercept)
	tr.SlopePerYear = tr.SlopePerDay * 365

	switch {
	case tr.SlopePerYear > 0.01:
		tr.Direction = "up"
	case tr.SlopePerYear < -0.01:
		tr.Direction = "down"
	default:
		tr.Direction = "flat"
	}
	return tr, nil
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

func sumF(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// stddevF is the sample standard deviation.
func stddevF(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

// percentile interpolates linearly between closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	if lo+1 >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

type point struct{ x, y float64 }

func olsRegress(pts []point) (slope, intercept float64) {
	n := float64(len(pts))
	var xSum, ySum, xySum, x2Sum float64
	for _, p := range pts {
		xSum += p.x
		ySum += p.y
		xySum += p.x * p.y
		x2Sum += p.x * p.x
	}
	denom := n*x2Sum - xSum*xSum
	if denom == 0 {
		return 0, ySum / n
	}
	slope = (n*xySum - xSum*ySum) / denom
	intercept = (ySum - slope*xSum) / n
	return
}

// theilSenSlope is the median of all pairwise slopes.
func theilSenSlope(pts []point) float64 {
	var slopes []float64
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if dx := pts[j].x - pts[i].x; dx != 0 {
				slopes = append(slopes, (pts[j].y-pts[i].y)/dx)
			}
		}
	}
	if len(slopes) == 0 {
		return 0
	}
	sort.Float64s(slopes)
	return percentile(slopes, 50)
}

func r2(pts []point, slope, intercept float64) float64 {
	yMean := meanPts(pts, func(p point) float64 { return p.y })
	var ssTot, ssRes float64
	for _, p := range pts {
		pred := slope*p.x + intercept
		ssTot += (p.y - yMean) * (p.y - yMean)
		ssRes += (p.y - pred) * (p.y - pred)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

func meanPts(pts []point, f func(point) float64) float64 {
	var s float64
	for _, p := range pts {
		s += f(p)
	}
	return s / float64(len(pts))
}
