package alarm

import "sync"

// Conditions tracks which external collaborators are currently failing
// (time source, timezone service, sun service, meter) so transitions are
// logged once and the active list can ride along in the metrics report.
type Conditions struct {
	active []string
	sync.RWMutex
}

// Raise marks a condition active and returns true if it was newly raised.
// Returns false if it was already active.
func (a *Conditions) Raise(cond string) bool {
	a.Lock()
	defer a.Unlock()
	for _, active := range a.active {
		if active == cond {
			return false
		}
	}

	a.active = append(a.active, cond)
	return true
}

// Resolve clears one condition and returns true if it was active.
func (a *Conditions) Resolve(cond string) bool {
	a.Lock()
	defer a.Unlock()
	for i, active := range a.active {
		if active == cond {
			a.active = append(a.active[:i], a.active[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns a copy of the currently active conditions.
func (a *Conditions) Active() []string {
	a.RLock()
	defer a.RUnlock()
	if len(a.active) == 0 {
		return nil
	}
	out := make([]string, len(a.active))
	copy(out, a.active)
	return out
}
