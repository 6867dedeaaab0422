package benchmark

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRunStart        EventType = "run_start"
	EventRunComplete     EventType = "run_complete"
	EventFixtureComplete EventType = "fixture_complete"
	EventFixtureSkipped  EventType = "fixture_skipped"
)

// ProgressEvent represents a progress update. Fixture events arrive in
// completion order, not input order.
type ProgressEvent struct {
	EventType EventType
	FixtureID string
	Index     int
	Total     int
	Score     float64
}

// OnProgress registers a progress listener
func (e *Evaluator) OnProgress(listener ProgressListener) {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.listeners = append(e.listeners, listener)
}

func (e *Evaluator) notifyProgress(event ProgressEvent) {
	e.progressMu.Lock()
	listeners := make([]ProgressListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}
