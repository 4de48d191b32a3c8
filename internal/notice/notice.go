// Package notice carries the typed notifications simulation entities
// raise while they mutate. Entities write to a Sink; callers usually
// hand every entity the same Log and read it back in order.
package notice

import "fmt"

// Kind identifies what happened.
type Kind string

const (
	ThresholdCrossed     Kind = "threshold-crossed"
	YearAdvanced         Kind = "year-advanced"
	EventOccurred        Kind = "event-occurred"
	EventResolved        Kind = "event-resolved"
	KingdomCollapsed     Kind = "kingdom-collapsed"
	WarDeclared          Kind = "war-declared"
	WarEnded             Kind = "war-ended"
	CrusadeLaunched      Kind = "crusade-launched"
	StanceChanged        Kind = "stance-changed"
	TerritoryExpanded    Kind = "territory-expanded"
	TerritoryLost        Kind = "territory-lost"
	CompetitorDiscovered Kind = "competitor-discovered"
	CompetitorDestroyed  Kind = "competitor-destroyed"
	AllianceProposed     Kind = "alliance-proposed"
	ConflictDeclared     Kind = "conflict-declared"
	AgentAdded           Kind = "agent-added"
	AgentRemoved         Kind = "agent-removed"
	AgentDied            Kind = "agent-died"
	AgentBetrayed        Kind = "agent-betrayed"
	SuccessionCompleted  Kind = "succession-completed"
	SuccessorTrained     Kind = "successor-trained"
	GenerationAdvanced   Kind = "generation-advanced"
	NewTraitEmerged      Kind = "new-trait-emerged"
	RegionDevastated     Kind = "region-devastated"
)

// Notice is one notification. Subject is the id of the entity that
// raised it; From and To carry before/after values for transitions.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Year    uint64 `json:"year"`
	Subject string `json:"subject,omitempty"`
	Detail  string `json:"detail,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

func (n Notice) String() string {
	s := fmt.Sprintf("[%d] %s", n.Year, n.Kind)
	if n.Subject != "" {
		s += " " + n.Subject
	}
	if n.From != "" || n.To != "" {
		s += fmt.Sprintf(" %s -> %s", n.From, n.To)
	}
	if n.Detail != "" {
		s += ": " + n.Detail
	}
	return s
}

// Sink receives notices synchronously.
type Sink interface {
	Notify(n Notice)
}

// Discard drops every notice.
var Discard Sink = discard{}

type discard struct{}

func (discard) Notify(Notice) {}

// Or returns s, or Discard when s is nil.
func Or(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Func adapts a function to a Sink.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Log records notices in arrival order and stamps each with the current
// year. An optional observer sees each notice after it is recorded.
// Observers must not call back into simulation mutators.
type Log struct {
	year     uint64
	entries  []Notice
	observer func(Notice)
}

// NewLog returns an empty log.
func NewLog() *Log { return &Log{} }

// SetYear sets the year stamped on notices that arrive without one.
func (l *Log) SetYear(year uint64) { l.year = year }

// Year returns the stamping year.
func (l *Log) Year() uint64 { return l.year }

// Observe installs fn as the observer, replacing any previous one.
func (l *Log) Observe(fn func(Notice)) { l.observer = fn }

func (l *Log) Notify(n Notice) {
	if n.Year == 0 {
		n.Year = l.year
	}
	l.entries = append(l.entries, n)
	if l.observer != nil {
		l.observer(n)
	}
}

// Entries returns a copy of every recorded notice.
func (l *Log) Entries() []Notice {
	out := make([]Notice, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the notices recorded after the first mark entries.
func (l *Log) Since(mark int) []Notice {
	if mark >= len(l.entries) {
		return nil
	}
	if mark < 0 {
		mark = 0
	}
	out := make([]Notice, len(l.entries)-mark)
	copy(out, l.entries[mark:])
	return out
}

// Len is the number of recorded notices.
func (l *Log) Len() int { return len(l.entries) }

// Count returns how many notices of kind k were recorded.
func (l *Log) Count(k Kind) int {
	n := 0
	for _, e := range l.entries {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Clear drops recorded notices, keeping the year and observer.
func (l *Log) Clear() { l.entries = l.entries[:0] }
