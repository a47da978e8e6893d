package compare

import (
	"encoding/json"
	"math"
	"strconv"
)

// DefaultXAxisKey is the step counter wandb writes on every history row.
const DefaultXAxisKey = "_step"

// Sample is one nullable numeric value of a series.
type Sample struct {
	V     float64
	Valid bool
}

// Num returns a defined sample.
func Num(v float64) Sample {
	return Sample{V: v, Valid: true}
}

// Null is the undefined sample.
var Null = Sample{}

// MarshalJSON encodes an undefined sample as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	if !s.Valid || math.IsNaN(s.V) || math.IsInf(s.V, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, s.V, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or null. Anything else decodes as null.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f, ok := v.(float64)
	*s = Sample{V: f, Valid: ok}
	return nil
}

// Series is the ordered, positionally indexed sample sequence of one metric in one run.
type Series []Sample

// At returns the sample at i, or Null past the end.
func (s Series) At(i int) Sample {
	if i < 0 || i >= len(s) {
		return Null
	}
	return s[i]
}

// Floats builds a Series where NaN marks a missing value.
func Floats(vals ...float64) Series {
	out := make(Series, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) {
			out[i] = Num(v)
		}
	}
	return out
}

// RawSeries maps metric name to series for a single run.
type RawSeries map[string]Series

// Empty reports whether the run carries no samples at all.
func (r RawSeries) Empty() bool {
	for _, s := range r {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Keys returns the metric names present in the run.
func (r RawSeries) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// XValue is a shared x-axis coordinate. Most x values are numeric; a text
// value only appears when an x column carries labels.
type XValue struct {
	Num    float64
	Text   string
	IsText bool
}

// NumX returns a numeric x value.
func NumX(v float64) XValue {
	return XValue{Num: v}
}

// TextX returns a text x value.
func TextX(s string) XValue {
	return XValue{Text: s, IsText: true}
}

// String formats the value for labels and lexical ordering.
func (x XValue) String() string {
	if x.IsText {
		return x.Text
	}
	return strconv.FormatFloat(x.Num, 'g', -1, 64)
}

// MarshalJSON encodes the value as a JSON number or string.
func (x XValue) MarshalJSON() ([]byte, error) {
	if x.IsText {
		return json.Marshal(x.Text)
	}
	return strconv.AppendFloat(nil, x.Num, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or a string.
func (x *XValue) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*x = NumX(t)
	case string:
		*x = TextX(t)
	default:
		*x = XValue{}
	}
	return nil
}

// AlignedPoint is one x position of one metric with a value per run.
// Values is parallel to the RunIDs of the owning AlignedSeries.
type AlignedPoint struct {
	X      XValue
	Values []Sample
}

// AlignedSeries is the aligned output for one metric.
type AlignedSeries struct {
	Metric string
	RunIDs []string
	Points []AlignedPoint
}

// Value returns the sample of run at point i.
func (a AlignedSeries) Value(i int, run string) Sample {
	if i < 0 || i >= len(a.Points) {
		return Null
	}
	for j, id := range a.RunIDs {
		if id == run {
			return a.Points[i].Values[j]
		}
	}
	return Null
}

// Column returns the samples of one run across all points.
func (a AlignedSeries) Column(run string) Series {
	idx := -1
	for j, id := range a.RunIDs {
		if id == run {
			idx = j
			break
		}
	}
	out := make(Series, len(a.Points))
	if idx < 0 {
		return out
	}
	for i, p := range a.Points {
		out[i] = p.Values[idx]
	}
	return out
}

// HasData reports whether any run has a defined value in the series.
func (a AlignedSeries) HasData() bool {
	for _, p := range a.Points {
		for _, v := range p.Values {
			if v.Valid {
				return true
			}
		}
	}
	return false
}

// MarshalJSON renders points as {"xValue": x, "<run>": v, ...} objects.
func (a AlignedSeries) MarshalJSON() ([]byte, error) {
	points := make([]map[string]interface{}, len(a.Points))
	for i, p := range a.Points {
		obj := make(map[string]interface{}, len(a.RunIDs)+1)
		obj["xValue"] = p.X
		for j, id := range a.RunIDs {
			obj[id] = p.Values[j]
		}
		points[i] = obj
	}
	return json.Marshal(struct {
		Metric string                   `json:"metric"`
		RunIDs []string                 `json:"run_ids"`
		Points []map[string]interface{} `json:"points"`
	}{a.Metric, a.RunIDs, points})
}
