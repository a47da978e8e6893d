package runs

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/MandiZhao/lowvr/internal/compare"
)

// Row is one history step: metric name to decoded JSON value.
type Row map[string]interface{}

// xAxisKeys are always extracted alongside the requested metrics.
var xAxisKeys = []string{"_step", "iter", "info/epochs", "step", "_timestamp", "_runtime"}

// Internal keys that still count as metrics.
var allowedInternalKeys = map[string]bool{
	"_step":      true,
	"_timestamp": true,
	"_runtime":   true,
}

const (
	autoKeySampleRows      = 10
	availableSampleRows    = 100
	minAvailableBeforeWide = 3
)

// ReadJSONL reads a wandb-history.jsonl stream. Lines that are not JSON
// objects are skipped and counted.
func ReadJSONL(r io.Reader) ([]Row, int, error) {
	var rows []Row
	skipped := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(line), &row); err != nil || row == nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return rows, skipped, err
	}
	return rows, skipped, nil
}

// numeric reports whether a decoded JSON value is a number. Booleans are not.
func numeric(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// ExtractMetrics turns history rows into columns.
//
// The requested keys are extracted together with the common x-axis keys.
// _step falls back to the row index when a row does not carry one.
// Non-numeric values become null. X-axis columns without a single value
// are dropped, except _step. With no keys, every numeric non-internal key
// of the first rows is extracted.
func ExtractMetrics(history []Row, keys []string) compare.RawSeries {
	if len(history) == 0 {
		return compare.RawSeries{}
	}

	if len(keys) == 0 {
		keys = sampleNumericKeys(history, autoKeySampleRows, false)
	}

	want := make(map[string]bool, len(keys)+len(xAxisKeys))
	for _, k := range keys {
		want[k] = true
	}
	for _, k := range xAxisKeys {
		want[k] = true
	}

	out := make(compare.RawSeries, len(want))
	for k := range want {
		out[k] = make(compare.Series, len(history))
	}

	for i, row := range history {
		for k := range want {
			if k == compare.DefaultXAxisKey {
				if f, ok := numeric(row[k]); ok {
					out[k][i] = compare.Num(f)
				} else {
					out[k][i] = compare.Num(float64(i))
				}
				continue
			}
			if f, ok := numeric(row[k]); ok {
				out[k][i] = compare.Num(f)
			}
		}
	}

	for _, k := range xAxisKeys {
		if k == compare.DefaultXAxisKey {
			continue
		}
		if allNull(out[k]) {
			delete(out, k)
		}
	}
	return out
}

// AvailableMetrics lists the numeric keys of a history, sorted.
//
// The first rows are sampled; when that finds fewer than three metrics and
// more rows exist, every row is scanned.
func AvailableMetrics(history []Row) []string {
	found := map[string]bool{}
	addNumericKeys(found, history, availableSampleRows, true)
	if len(found) < minAvailableBeforeWide && len(history) > availableSampleRows {
		addNumericKeys(found, history, len(history), true)
	}

	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sampleNumericKeys(history []Row, limit int, allowInternal bool) []string {
	found := map[string]bool{}
	addNumericKeys(found, history, limit, allowInternal)
	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func addNumericKeys(found map[string]bool, history []Row, limit int, allowInternal bool) {
	if limit > len(history) {
		limit = len(history)
	}
	for _, row := range history[:limit] {
		for k, v := range row {
			if _, ok := numeric(v); !ok {
				continue
			}
			if strings.HasPrefix(k, "_") && !(allowInternal && allowedInternalKeys[k]) {
				continue
			}
			found[k] = true
		}
	}
}

func allNull(s compare.Series) bool {
	for _, v := range s {
		if v.Valid {
			return false
		}
	}
	return true
}
