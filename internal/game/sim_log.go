package game

import (
	"fmt"
	"strings"
)

// Log categories.
const (
	CatSense   = "sense"
	CatMove    = "move"
	CatDetect  = "detect"
	CatBelief  = "belief"
	CatPhase   = "phase"
	CatWarning = "warning"
)

// SimLogEntry is one recorded engine event.
type SimLogEntry struct {
	Tick     int
	Phase    string  // phase the tick ran in
	Category string  // sense, move, detect, belief, phase, warning
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] tracking   detect    ping            distance=7
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-10s %-9s %-16s %s",
		e.Tick, e.Phase, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a run. Unlike the viewer's ring
// buffer, SimLog is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick belief statistics
// are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Verbose reports whether per-tick statistics are being recorded.
func (sl *SimLog) Verbose() bool { return sl.verbose }

// Add records a new entry.
func (sl *SimLog) Add(tick int, phase, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Phase:    phase,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, phase, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, phase, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Len returns the number of recorded entries.
func (sl *SimLog) Len() int { return len(sl.entries) }

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterPhase returns entries recorded during the named phase.
func (sl *SimLog) FilterPhase(phase string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Phase == phase {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the engine state.
func (sl *SimLog) Summary(snap Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", snap.Tick)
	fmt.Fprintf(&sb, "Phase: %s  policy: %s\n", snap.Phase, snap.Policy)
	fmt.Fprintf(&sb, "Agent: %v  target: %v\n", snap.Agent, snap.Target)
	if est, ok := snap.EstimatedAgent(); ok {
		fmt.Fprintf(&sb, "Estimate: %v\n", est)
	} else {
		fmt.Fprintf(&sb, "Candidates: %d\n", len(snap.Candidates))
	}
	fmt.Fprintf(&sb, "Counters: moves=%d  sensing=%d  detections=%d  pings=%d\n",
		snap.Counters.Movements, snap.Counters.Sensing, snap.Counters.Detections, snap.Counters.Pings)
	if snap.Belief != nil {
		fmt.Fprintf(&sb, "Belief: max=%.4f  entropy=%.3f\n", snap.MaxBelief, snap.Entropy)
	}
	fmt.Fprintf(&sb, "Entries: localizing=%d  tracking=%d  warnings=%d\n",
		len(sl.FilterPhase(PhaseLocalizing.String())), len(sl.FilterPhase(PhaseTracking.String())),
		sl.CountCategory(CatWarning, ""))
	return sb.String()
}
