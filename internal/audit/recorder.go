package audit

// Recorder is the non-blocking front door handlers emit events through.
// Events flow over a bounded channel to the Worker; when the channel is full
// the event is dropped, because audit must never stall or fail a request.
type Recorder struct {
	events chan Event
}

func NewRecorder(buffer int) *Recorder {
	return &Recorder{events: make(chan Event, buffer)}
}

// Record enqueues an event if there is room and reports whether it was kept.
func (r *Recorder) Record(event Event) bool {
	select {
	case r.events <- event:
		return true
	default:
		return false
	}
}

// Events is the worker's consumption side.
func (r *Recorder) Events() <-chan Event {
	return r.events
}
