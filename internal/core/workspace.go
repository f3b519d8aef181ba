package core

// workspace.go holds the lab's shared pipeline state.
//
// Each field has one writer: ingests publish the input, the transform stage
// publishes the result, exports only read. Subscribers receive a Snapshot
// after every publish. Sends never block; when a listener's buffer is full its
// oldest pending snapshot is dropped, so the newest state always gets through.
//
// Published IngestResult and Result values are treated as immutable.

import (
	"fmt"
	"sync"
)

// Snapshot is a point-in-time view of the workspace.
type Snapshot struct {
	// Revision increases on every publish.
	Revision uint64 `json:"revision"`
	// InputVersion increases on every accepted input. A result belongs to
	// the input version it was computed for.
	InputVersion uint64        `json:"input_version"`
	Ticket       uint64        `json:"ticket"`
	Input        *IngestResult `json:"input,omitempty"`
	InputText    string        `json:"input_text"`
	N            int           `json:"n"`
	Result       *Result       `json:"-"`
	Transform    string        `json:"transform,omitempty"`
	FileExists   bool          `json:"file_exists"`
}

// HasResult reports whether an exportable result is present.
func (s Snapshot) HasResult() bool { return s.Result.Len() > 0 }

// Workspace is the single source of truth for pipeline inputs and outputs.
type Workspace struct {
	mu        sync.Mutex
	state     Snapshot
	listeners map[int]chan Snapshot
	nextID    int
	closed    bool
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{listeners: make(map[int]chan Snapshot)}
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// PublishInput replaces the input wholesale and clears the stale result.
// An ingest whose ticket is not newer than the applied one is rejected with
// ErrStaleIngest and leaves the state untouched.
func (w *Workspace) PublishInput(in *IngestResult) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if in.Ticket <= w.state.Ticket {
		return w.state, fmt.Errorf("ticket %d, applied %d: %w", in.Ticket, w.state.Ticket, ErrStaleIngest)
	}

	text := FormatInputText(in.Sequence)
	if in.Mode == ModeGrid {
		text = FormatGridText(in.Grid)
	}

	w.state = Snapshot{
		Revision:     w.state.Revision + 1,
		InputVersion: w.state.InputVersion + 1,
		Ticket:       in.Ticket,
		Input:        in,
		InputText:    text,
		N:            in.Count,
		FileExists:   true,
	}
	w.notify()
	return w.state, nil
}

// PublishResult stores a transform output computed for inputVersion.
// Returns false, leaving the state untouched, if the input changed meanwhile.
func (w *Workspace) PublishResult(inputVersion uint64, transform string, r *Result) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if inputVersion != w.state.InputVersion {
		return false
	}
	w.state.Revision++
	w.state.Result = r
	w.state.Transform = transform
	w.notify()
	return true
}

// Subscribe registers a listener. The current state is delivered first.
// The returned cancel func unregisters and closes the channel.
func (w *Workspace) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		close(ch)
		return ch, func() {}
	}

	id := w.nextID
	w.nextID++
	w.listeners[id] = ch
	ch <- w.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if c, ok := w.listeners[id]; ok {
				delete(w.listeners, id)
				close(c)
			}
		})
	}
}

// Close closes every listener channel. Later subscriptions get a closed channel.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range w.listeners {
		close(ch)
		delete(w.listeners, id)
	}
	w.closed = true
}

// notify sends the current state to all listeners. Caller holds w.mu.
func (w *Workspace) notify() {
	for _, ch := range w.listeners {
		select {
		case ch <- w.state:
			continue
		default:
		}
		// Listener is slow: drop its oldest snapshot to make room.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- w.state:
		default:
		}
	}
}
