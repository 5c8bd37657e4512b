// Package events is an in-process publish/subscribe bus for session changes.
package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	SessionFinished Kind = "session_finished"
	SessionCreated  Kind = "session_created"
	SessionUpdated  Kind = "session_updated"
	SessionDeleted  Kind = "session_deleted"
	TimerChanged    Kind = "timer_changed"
	CourseChanged   Kind = "course_changed"
)

type Event struct {
	Kind      Kind        `json:"kind"`
	UserID    uuid.UUID   `json:"user_id"`
	SessionID uuid.UUID   `json:"session_id,omitempty"`
	Day       time.Time   `json:"day,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AffectsSessions reports whether stored sessions changed, so daily rollups
// need a refresh.
func (e Event) AffectsSessions() bool {
	switch e.Kind {
	case SessionFinished, SessionCreated, SessionUpdated, SessionDeleted:
		return true
	}
	return false
}

// InvalidatesCharts reports whether rendered charts may be out of date: any
// session change, or a course rename that alters legend labels.
func (e Event) InvalidatesCharts() bool {
	return e.AffectsSessions() || e.Kind == CourseChanged
}

// DefaultSessionWait bounds how long Publish waits on a full subscriber for
// any event other than TimerChanged.
const DefaultSessionWait = 5 * time.Second

type subscriber struct {
	ch    chan Event
	kinds map[Kind]bool
}

func (s subscriber) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

// Bus fans events out to every subscriber. Each subscriber has its own
// buffered channel. TimerChanged is dropped when a subscriber falls behind;
// every other kind waits up to sessionWait for room.
type Bus struct {
	mu          sync.RWMutex
	subs        map[int]subscriber
	nextID      int
	buffer      int
	sessionWait time.Duration
	closed      bool
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{subs: make(map[int]subscriber), buffer: buffer, sessionWait: DefaultSessionWait}
}

// SessionKinds are the kinds that change stored sessions.
var SessionKinds = []Kind{SessionFinished, SessionCreated, SessionUpdated, SessionDeleted}

// ChartKinds are the kinds that invalidate rendered charts.
var ChartKinds = append(append([]Kind(nil), SessionKinds...), CourseChanged)

// Subscribe registers a new subscriber receiving only the given kinds, or
// every kind when none are given. Call the returned func to unsubscribe.
func (b *Bus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	sub := subscriber{ch: ch}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, sub := range b.subs {
		if !sub.wants(e.Kind) {
			continue
		}
		select {
		case sub.ch <- e:
			continue
		default:
		}
		if e.Kind == TimerChanged {
			log.Printf("events: subscriber %d is full, dropping %s for user %s", id, e.Kind, e.UserID)
			continue
		}
		wait := time.NewTimer(b.sessionWait)
		select {
		case sub.ch <- e:
		case <-wait.C:
			log.Printf("events: subscriber %d stalled for %s, dropping %s for user %s", id, b.sessionWait, e.Kind, e.UserID)
		}
		wait.Stop()
	}
}

// Close closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Consume runs fn for every event on ch until the channel closes.
func Consume(name string, ch <-chan Event, fn func(Event) error) {
	for e := range ch {
		if err := fn(e); err != nil {
			log.Printf("%s: failed to handle %s for user %s: %v", name, e.Kind, e.UserID, err)
		}
	}
}
