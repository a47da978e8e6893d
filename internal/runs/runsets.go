package runs

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lverrors "github.com/MandiZhao/lowvr/internal/errors"
)

// RunSet is a named group of runs saved from the web UI.
type RunSet struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	RunIDs []string `json:"run_ids"`
	Color  string   `json:"color,omitempty"`
}

// RunSets is an in-memory collection of run sets. Safe for concurrent use.
type RunSets struct {
	mu   sync.RWMutex
	sets map[string]RunSet
	seq  int
}

// NewRunSets creates an empty collection.
func NewRunSets() *RunSets {
	return &RunSets{sets: make(map[string]RunSet)}
}

// List returns every run set ordered by name, then id.
func (r *RunSets) List() []RunSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RunSet, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Upsert stores a run set. A set without an id gets a fresh one.
func (r *RunSets) Upsert(s RunSet) (RunSet, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return RunSet{}, lverrors.New(lverrors.ErrInput, "Run set name is required", "")
	}
	s.RunIDs = append([]string(nil), s.RunIDs...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		for {
			r.seq++
			s.ID = fmt.Sprintf("set-%d", r.seq)
			if _, taken := r.sets[s.ID]; !taken {
				break
			}
		}
	}
	r.sets[s.ID] = s
	return s, nil
}

// Delete removes a run set. It reports whether the set existed.
func (r *RunSets) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sets[id]
	delete(r.sets, id)
	return ok
}
