package compare

// Aggregate is the per-run result of one fetch cycle.
type Aggregate map[string]RawSeries

// Empty reports whether no run contributed any samples.
func (a Aggregate) Empty() bool {
	for _, rs := range a {
		if !rs.Empty() {
			return false
		}
	}
	return true
}

// StaleDataGuard keeps the last non-empty aggregate so the view does not
// collapse to a loading state while a newer fetch is in flight.
type StaleDataGuard struct {
	held    Aggregate
	version uint64
}

// Offer records a settled fetch result. Empty results are ignored.
// It returns true when the held aggregate changed.
func (g *StaleDataGuard) Offer(a Aggregate) bool {
	if a.Empty() {
		return false
	}
	g.held = a
	g.version++
	return true
}

// Current returns the held aggregate, or nil if nothing was ever held.
func (g *StaleDataGuard) Current() Aggregate {
	return g.held
}

// Loading is true only until the first non-empty aggregate arrives.
func (g *StaleDataGuard) Loading() bool {
	return g.held == nil
}

// Version increments every time the held aggregate is replaced.
// Used as the identity of the raw series for memoized alignment.
func (g *StaleDataGuard) Version() uint64 {
	return g.version
}
