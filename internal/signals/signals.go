package signals

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Well-known sender names for the models that publish lifecycle signals.
const (
	SenderUser = "user"
	SenderPost = "post"
)

// Event carries the payload delivered to receivers when a signal fires.
type Event struct {
	// SignalName identifies the dispatch point that fired, e.g.
	// "user.post_save". Send fills it in; callers leave it empty.
	SignalName string
	// Sender is the model name that produced the signal, e.g. "user".
	Sender string
	// Instance is the model value at dispatch time. For pre-delete
	// signals it is the row as it still exists in the database.
	Instance interface{}
	// Created distinguishes an INSERT from an UPDATE on post-save
	// signals. It is always false for pre-delete.
	Created bool
}

// Receiver is a function invoked synchronously when a signal fires.
// A non-nil error propagates to the code that triggered the signal.
type Receiver func(ctx context.Context, e Event) error

// Signal is a named dispatch point. Receivers run in registration order
// on the goroutine that calls Send.
type Signal struct {
	name string

	mu        sync.RWMutex
	order     []string
	receivers map[string]Receiver
}

// New creates a Signal with the given name.
func New(name string) *Signal {
	return &Signal{
		name:      name,
		receivers: make(map[string]Receiver),
	}
}

// Name returns the signal's name, e.g. "user.post_save".
func (s *Signal) Name() string {
	return s.name
}

// Connect registers a receiver under a stable id. Connecting the same id
// again replaces the previous receiver without changing its position in
// the dispatch order, so re-registration never double-fires.
func (s *Signal) Connect(id string, r Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.receivers[id]; !ok {
		s.order = append(s.order, id)
	}
	s.receivers[id] = r
}

// Disconnect removes the receiver registered under id. It reports
// whether a receiver was actually removed.
func (s *Signal) Disconnect(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.receivers[id]; !ok {
		return false
	}
	delete(s.receivers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Send delivers the event to every connected receiver, in registration
// order. All receivers run even when an earlier one fails; the failures
// are joined into the returned error.
func (s *Signal) Send(ctx context.Context, e Event) error {
	s.mu.RLock()
	ordered := make([]Receiver, 0, len(s.order))
	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		ordered = append(ordered, s.receivers[id])
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	e.SignalName = s.name

	var errs []error
	for i, r := range ordered {
		if err := r(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("receiver %q on %s: %w", ids[i], s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Registry groups the lifecycle signals of every sender in one place so
// that services and receivers share the same dispatch points.
type Registry struct {
	mu      sync.Mutex
	signals map[string]*Signal
}

// NewRegistry creates an empty signal registry.
func NewRegistry() *Registry {
	return &Registry{signals: make(map[string]*Signal)}
}

// PostSave returns the post-save signal for a sender, creating it on
// first use. It fires after a row has been inserted or updated.
func (r *Registry) PostSave(sender string) *Signal {
	return r.lookup(sender + ".post_save")
}

// PreDelete returns the pre-delete signal for a sender, creating it on
// first use. It fires before a row is removed, while the row is still
// readable.
func (r *Registry) PreDelete(sender string) *Signal {
	return r.lookup(sender + ".pre_delete")
}

func (r *Registry) lookup(name string) *Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.signals[name]; ok {
		return s
	}
	s := New(name)
	r.signals[name] = s
	return s
}
