package compare

import (
	"math"
	"sort"
	"strings"
)

// xAxisHints mark metric names that can serve as an x axis.
var xAxisHints = []string{"step", "iter", "epoch", "time"}

// Align produces one aligned series per metric.
//
// Alignment is by index position: point i of a metric carries sample i of
// every run, padded with Null for runs whose series is shorter. The x value
// of point i comes from the first run in runIDs order that has a defined
// xAxisKey sample at i, falling back to i itself. runIDs order therefore
// decides which run labels the shared axis.
func Align(runIDs []string, raw Aggregate, metrics []string, xAxisKey string) []AlignedSeries {
	out := make([]AlignedSeries, 0, len(metrics))
	for _, m := range metrics {
		if m == xAxisKey {
			continue
		}
		out = append(out, alignMetric(runIDs, raw, m, xAxisKey))
	}
	return out
}

func alignMetric(runIDs []string, raw Aggregate, metric, xAxisKey string) AlignedSeries {
	maxLen := 0
	for _, run := range runIDs {
		if n := len(raw[run][metric]); n > maxLen {
			maxLen = n
		}
	}

	ids := make([]string, len(runIDs))
	copy(ids, runIDs)

	points := make([]AlignedPoint, maxLen)
	for i := 0; i < maxLen; i++ {
		p := AlignedPoint{
			X:      resolveX(runIDs, raw, xAxisKey, i),
			Values: make([]Sample, len(runIDs)),
		}
		for j, run := range runIDs {
			p.Values[j] = raw[run][metric].At(i)
		}
		points[i] = p
	}

	return AlignedSeries{Metric: metric, RunIDs: ids, Points: points}
}

func resolveX(runIDs []string, raw Aggregate, xAxisKey string, i int) XValue {
	for _, run := range runIDs {
		if s := raw[run][xAxisKey].At(i); s.Valid {
			return NumX(s.V)
		}
	}
	return NumX(float64(i))
}

// XAxisOptions lists the keys that can be chosen as the x axis: the default
// key first, then every key that looks like a step, iteration, epoch or time
// counter, sorted.
func XAxisOptions(raw Aggregate) []string {
	seen := map[string]bool{DefaultXAxisKey: true}
	var found []string
	for _, rs := range raw {
		for key := range rs {
			if seen[key] || !looksLikeXAxis(key) {
				continue
			}
			seen[key] = true
			found = append(found, key)
		}
	}
	sort.Strings(found)
	return append([]string{DefaultXAxisKey}, found...)
}

func looksLikeXAxis(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range xAxisHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// DistinctX returns the distinct x values across all aligned series, sorted
// numerically when every value is numeric and lexically otherwise.
func DistinctX(aligned []AlignedSeries) []XValue {
	seen := make(map[XValue]bool)
	var xs []XValue
	allNumeric := true
	for _, a := range aligned {
		for _, p := range a.Points {
			if seen[p.X] {
				continue
			}
			seen[p.X] = true
			xs = append(xs, p.X)
			if p.X.IsText {
				allNumeric = false
			}
		}
	}

	if allNumeric {
		sort.Slice(xs, func(i, j int) bool { return xs[i].Num < xs[j].Num })
	} else {
		sort.Slice(xs, func(i, j int) bool { return xs[i].String() < xs[j].String() })
	}
	return xs
}

// Range is the numeric extent of a metric across all runs.
type Range struct {
	Min, Max float64
	Valid    bool
}

// Ranges computes the min and max of every aligned series, ignoring nulls.
// A series with no defined values gets an invalid Range.
func Ranges(aligned []AlignedSeries) map[string]Range {
	out := make(map[string]Range, len(aligned))
	for _, a := range aligned {
		r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
		for _, p := range a.Points {
			for _, v := range p.Values {
				if !v.Valid {
					continue
				}
				r.Valid = true
				r.Min = math.Min(r.Min, v.V)
				r.Max = math.Max(r.Max, v.V)
			}
		}
		if !r.Valid {
			r = Range{}
		}
		out[a.Metric] = r
	}
	return out
}

// IndexOfX returns the first point index of a whose x equals x, or -1.
func IndexOfX(a AlignedSeries, x XValue) int {
	for i, p := range a.Points {
		if p.X == x {
			return i
		}
	}
	return -1
}
