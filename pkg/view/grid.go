package view

import (
	"fmt"
	"math"
	"time"
)

// TargetGridSpacing is the minimum on-screen distance between grid lines.
const TargetGridSpacing = 80.0

// Interval sizes in seconds.
const (
	Hour       = 3600.0
	Day        = 24 * Hour
	Year       = 365.25 * Day
	Month      = Year / 12
	Decade     = 10 * Year
	Century    = 100 * Year
	Millennium = 1000 * Year
)

// GridInterval is one rung of the grid ladder.
type GridInterval struct {
	Name    string
	Seconds float64
}

// GridLadder is ordered from largest to smallest.
var GridLadder = []GridInterval{
	{"millennium", Millennium},
	{"century", Century},
	{"decade", Decade},
	{"year", Year},
	{"month", Month},
	{"day", Day},
	{"hour", Hour},
}

// ChooseGridInterval walks the ladder from the top and returns the largest
// interval whose on-screen size is at least TargetGridSpacing. When no rung
// qualifies (zoomed out beyond a millennium per 80px) the largest rung is
// returned so the caller always has a grid.
func ChooseGridInterval(zoom float64) GridInterval {
	for _, g := range GridLadder {
		if g.Seconds*zoom >= TargetGridSpacing {
			return g
		}
	}
	return GridLadder[0]
}

// FinestGridInterval returns the smallest rung that still keeps lines at
// least TargetGridSpacing apart. The renderer uses it for tick marks.
func FinestGridInterval(zoom float64) GridInterval {
	best := GridLadder[0]
	for _, g := range GridLadder {
		if g.Seconds*zoom >= TargetGridSpacing {
			best = g
		}
	}
	return best
}

// GridLines returns the multiples of interval inside [lo, hi].
func GridLines(lo, hi float64, interval GridInterval, limit int) []float64 {
	if interval.Seconds <= 0 || hi < lo {
		return nil
	}
	start := math.Ceil(lo/interval.Seconds) * interval.Seconds
	var out []float64
	for v := start; v <= hi; v += interval.Seconds {
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// FormatTick labels a grid line at ts for the given interval.
func FormatTick(ts float64, interval GridInterval) string {
	switch interval.Name {
	case "millennium", "century", "decade":
		return formatYear(yearOf(ts))
	case "year":
		return formatYear(yearOf(ts))
	}
	if math.Abs(ts) > 1e13 {
		return formatYear(yearOf(ts))
	}
	t := time.Unix(int64(ts), 0).UTC()
	switch interval.Name {
	case "month":
		return t.Format("Jan 2006")
	case "day":
		return t.Format("Jan 2")
	default:
		return t.Format("15:04")
	}
}

// yearOf approximates the calendar year for ts using the mean year length.
func yearOf(ts float64) int {
	return 1970 + int(math.Floor(ts/Year))
}

func formatYear(y int) string {
	if y <= 0 {
		return fmt.Sprintf("%d BCE", 1-y)
	}
	return fmt.Sprintf("%d", y)
}
