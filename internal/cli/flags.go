package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/MandiZhao/lowvr/internal/compare"
	"github.com/MandiZhao/lowvr/internal/config"
	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/runs"
)

// dedupe drops empty and repeated entries, keeping first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// resolveRuns maps --runs entries to run IDs. An entry matches a run ID or,
// when unambiguous, a display name. With no entries the newest limit runs are
// used; limit 0 means all of them.
func resolveRuns(all []runs.Run, requested []string, limit int) ([]string, error) {
	requested = dedupe(requested)
	if len(requested) == 0 {
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		ids := make([]string, len(all))
		for i, r := range all {
			ids[i] = r.ID
		}
		return ids, nil
	}

	byID := make(map[string]bool, len(all))
	byName := make(map[string][]string)
	for _, r := range all {
		byID[r.ID] = true
		byName[r.DisplayName] = append(byName[r.DisplayName], r.ID)
	}

	var ids []string
	for _, want := range requested {
		switch {
		case byID[want]:
			ids = append(ids, want)
		case len(byName[want]) == 1:
			ids = append(ids, byName[want][0])
		case len(byName[want]) > 1:
			return nil, errors.New(errors.ErrInput,
				fmt.Sprintf("%q names %d runs", want, len(byName[want])),
				"Use run IDs instead: "+strings.Join(byName[want], ", "))
		default:
			return nil, errors.New(errors.ErrInput,
				fmt.Sprintf("Run %s not found", want),
				"Run 'lowvr runs' to list the runs in the wandb directory")
		}
	}
	return dedupe(ids), nil
}

// runLabels maps run IDs to the names shown in legends.
func runLabels(all []runs.Run) map[string]string {
	labels := make(map[string]string, len(all))
	for _, r := range all {
		if r.DisplayName != "" {
			labels[r.ID] = r.DisplayName
		}
	}
	return labels
}

// quoteGlob escapes glob metacharacters so a picked metric name matches only
// itself.
func quoteGlob(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[]{}\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// validateColumns checks a --columns value; 0 keeps the configured count.
func validateColumns(n int) error {
	if n < 0 || n > compare.MaxColumns {
		return errors.New(errors.ErrInput,
			fmt.Sprintf("--columns must be between 1 and %d, got %d", compare.MaxColumns, n),
			"")
	}
	return nil
}

// validateRefresh checks a --refresh value; 0 keeps the configured interval.
func validateRefresh(d time.Duration) error {
	if d != 0 && d < config.MinRefresh {
		return errors.New(errors.ErrInput,
			fmt.Sprintf("--refresh %s is too fast", d),
			"Use "+config.MinRefresh.String()+" or more")
	}
	return nil
}
