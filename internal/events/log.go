// Package events stores behavior notifications as an append-only log keyed by
// the actor they concern, and forwards them to Redis streams.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
)

// Record is one stored notification.
type Record struct {
	ID uuid.UUID
	// Aggregate is the actor the event belongs to.
	Aggregate string
	// Sequence is 1-based and strictly increasing per aggregate.
	Sequence int
	At       time.Time
	Event    behavior.Event
}

// DefaultHistory is the number of records a Log retains per aggregate.
const DefaultHistory = 1024

// Log is an in-memory append-only event log. It implements behavior.EventSink.
// All methods are safe for concurrent use.
//
// Invariant: each aggregate retains at most history records; sequence numbers
// keep counting past evicted records.
type Log struct {
	mu      sync.Mutex
	streams map[string][]Record
	seq     map[string]int
	total   int
	history int
	pending []Record
	now     func() time.Time
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithClock makes the Log read time from now.
//
// Precondition: now must not be nil.
func WithClock(now func() time.Time) LogOption {
	if now == nil {
		panic("events.WithClock: now must not be nil")
	}
	return func(l *Log) { l.now = now }
}

// WithHistory bounds the records retained per aggregate. Zero keeps none;
// negative values are treated as zero.
func WithHistory(n int) LogOption {
	if n < 0 {
		n = 0
	}
	return func(l *Log) { l.history = n }
}

// NewLog returns an empty Log stamping records with the wall clock and
// retaining DefaultHistory records per aggregate.
func NewLog(opts ...LogOption) *Log {
	l := &Log{
		streams: make(map[string][]Record),
		seq:     make(map[string]int),
		history: DefaultHistory,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLogWithClock returns an empty Log that reads time from now.
//
// Precondition: now must not be nil.
func NewLogWithClock(now func() time.Time) *Log {
	return NewLog(WithClock(now))
}

// Record appends e to its actor's stream, evicting the oldest retained record
// once the stream is at capacity.
//
// Postcondition: the record is also queued for the next Drain.
func (l *Log) Record(e behavior.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq[e.ActorID]++
	l.total++
	rec := Record{
		ID:        uuid.New(),
		Aggregate: e.ActorID,
		Sequence:  l.seq[e.ActorID],
		At:        l.now(),
		Event:     e,
	}
	l.pending = append(l.pending, rec)
	if l.history == 0 {
		return
	}
	stream := l.streams[e.ActorID]
	if len(stream) >= l.history {
		stream = append(stream[:0], stream[len(stream)-l.history+1:]...)
	}
	l.streams[e.ActorID] = append(stream, rec)
}

// Forget drops aggregate's retained records. Its sequence keeps counting.
func (l *Log) Forget(aggregate string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.streams, aggregate)
}

// Stream returns a copy of the retained records for aggregate, oldest first.
func (l *Log) Stream(aggregate string) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.streams[aggregate]...)
}

// Drain returns the records appended since the previous Drain, in append
// order, and clears the queue.
func (l *Log) Drain() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// Len returns the number of records ever appended, retained or not.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
