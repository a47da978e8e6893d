package compare

// Reorder moves dragged to the position currently held by target and
// returns the new order. The relative order of every other metric is kept.
// Unknown metrics or dragged == target leave the order unchanged.
func Reorder(order []string, dragged, target string) []string {
	out := append([]string(nil), order...)
	if dragged == target {
		return out
	}

	from, to := -1, -1
	for i, m := range order {
		switch m {
		case dragged:
			from = i
		case target:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return out
	}

	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{dragged}, out[to:]...)...)
	return out
}

// SyncOrder reconciles a display order with a new metric set. Metrics that
// are still present keep their place, new metrics are appended in the order
// given, and the x-axis key is never displayed.
func SyncOrder(order, metrics []string, xAxisKey string) []string {
	want := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		want[m] = true
	}

	out := make([]string, 0, len(metrics))
	seen := make(map[string]bool, len(metrics))
	for _, m := range order {
		if want[m] && !seen[m] && m != xAxisKey {
			out = append(out, m)
			seen[m] = true
		}
	}
	for _, m := range metrics {
		if !seen[m] && m != xAxisKey {
			out = append(out, m)
			seen[m] = true
		}
	}
	return out
}

// Neighbor returns the metric offset positions away from metric in order,
// or "" when that position does not exist.
func Neighbor(order []string, metric string, offset int) string {
	for i, m := range order {
		if m == metric {
			j := i + offset
			if j < 0 || j >= len(order) {
				return ""
			}
			return order[j]
		}
	}
	return ""
}
