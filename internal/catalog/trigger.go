package catalog

// TriggerTiming is BEFORE/AFTER/INSTEAD OF.
type TriggerTiming int

const (
	TriggerBefore TriggerTiming = iota
	TriggerAfter
	TriggerInsteadOf
)

// TriggerEvent is one member of a trigger's event set.
type TriggerEvent int

const (
	EventInsert TriggerEvent = iota
	EventUpdate
	EventDelete
	EventTruncate
)

// Trigger is keyed by schema+table+name (spec §3). Event set is
// order-independent (spec §4.2 item 7) so it is compared as a set, not
// a slice, by the differ/normalizer even though it is stored as a
// slice here for stable serialization.
type Trigger struct {
	Schema    string
	Table     string
	Name      string
	Timing    TriggerTiming
	Events    []TriggerEvent
	ForEach   string // "row" or "statement"
	When      string // normalized predicate, empty if none
	Function  string // qualified function signature
	UpdateOf  []string // optional column list for UPDATE OF events
	Comment   string
}

func (t *Trigger) QualifiedName() string {
	return t.Schema + "." + t.Table + "." + t.Name
}

// HasEvent reports whether e is a member of the trigger's event set.
func (t *Trigger) HasEvent(e TriggerEvent) bool {
	for _, ev := range t.Events {
		if ev == e {
			return true
		}
	}
	return false
}
