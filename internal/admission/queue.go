// Package admission serializes submissions: each caller has at most one entry,
// and entries run one at a time in enqueue order.
package admission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/davidbz/linguist/internal/observability"
)

var (
	// ErrBusy indicates the caller's request is already running.
	ErrBusy = errors.New("caller has a request in progress")

	// ErrAlreadyQueued indicates the caller is already waiting for its turn.
	ErrAlreadyQueued = errors.New("caller is already queued")

	// ErrAbandoned indicates the entry was released before or while running.
	ErrAbandoned = errors.New("admission entry abandoned")
)

type entry struct {
	callerID   string
	enqueuedAt time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	ready      chan struct{}
	signaled   bool
	running    bool
	released   bool
}

// Queue is a FIFO admission gate with one in-flight entry per caller.
type Queue struct {
	mu       sync.Mutex
	entries  []*entry
	byCaller map[string]*entry
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewQueue creates an empty admission queue.
func NewQueue(metrics *observability.Metrics) *Queue {
	return &Queue{
		mu:       sync.Mutex{},
		entries:  make([]*entry, 0, 16),
		byCaller: make(map[string]*entry),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Ticket is a caller's place in the queue.
type Ticket struct {
	queue *Queue
	entry *entry
}

// Enqueue appends the caller to the wait list. It returns ErrBusy when the
// caller's request is running and ErrAlreadyQueued when it is still waiting.
// The ticket's context derives from ctx and is cancelled by Abandon.
func (q *Queue) Enqueue(ctx context.Context, callerID string) (*Ticket, error) {
	if callerID == "" {
		return nil, errors.New("caller id cannot be empty")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.byCaller[callerID]; ok {
		if existing.running {
			return nil, ErrBusy
		}
		return nil, ErrAlreadyQueued
	}

	entryCtx, cancel := context.WithCancel(ctx)
	e := &entry{
		callerID:   callerID,
		enqueuedAt: q.now(),
		ctx:        entryCtx,
		cancel:     cancel,
		ready:      make(chan struct{}),
	}

	q.entries = append(q.entries, e)
	q.byCaller[callerID] = e
	q.signalHeadLocked()
	q.metrics.SetQueueDepth(len(q.entries))

	return &Ticket{queue: q, entry: e}, nil
}

// Submit enqueues the caller, waits for its turn, runs task and releases the
// slot on every exit path.
func (q *Queue) Submit(ctx context.Context, callerID string, task func(context.Context) error) error {
	ticket, err := q.Enqueue(ctx, callerID)
	if err != nil {
		return err
	}
	defer ticket.Done()

	if err := ticket.Wait(); err != nil {
		return err
	}

	return task(ticket.Context())
}

// Abandon cancels the caller's entry. A waiting entry leaves the queue at once;
// a running entry keeps its slot until its Done so runs never overlap.
func (q *Queue) Abandon(callerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byCaller[callerID]
	if !ok {
		return false
	}

	e.cancel()
	if !e.running {
		q.releaseLocked(e)
	}
	return true
}

// Len returns the number of waiting and running entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// Position returns the caller's zero-based position, or -1 when absent.
func (q *Queue) Position(callerID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.callerID == callerID {
			return i
		}
	}
	return -1
}

// Wait blocks until the ticket reaches the head of the queue and marks it running.
func (t *Ticket) Wait() error {
	e := t.entry

	select {
	case <-e.ready:
	case <-e.ctx.Done():
		t.queue.mu.Lock()
		t.queue.releaseLocked(e)
		t.queue.mu.Unlock()
		return ErrAbandoned
	}

	t.queue.mu.Lock()
	defer t.queue.mu.Unlock()

	if e.released || e.ctx.Err() != nil {
		t.queue.releaseLocked(e)
		return ErrAbandoned
	}

	e.running = true
	return nil
}

// Context is cancelled when the caller's context ends or the entry is abandoned.
func (t *Ticket) Context() context.Context {
	return t.entry.ctx
}

// EnqueuedAt returns when the ticket joined the queue.
func (t *Ticket) EnqueuedAt() time.Time {
	return t.entry.enqueuedAt
}

// Done releases the ticket. It is safe to call more than once.
func (t *Ticket) Done() {
	t.queue.mu.Lock()
	defer t.queue.mu.Unlock()

	t.queue.releaseLocked(t.entry)
}

func (q *Queue) releaseLocked(e *entry) {
	if e.released {
		return
	}
	e.released = true
	e.running = false
	e.cancel()

	for i, candidate := range q.entries {
		if candidate == e {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	if q.byCaller[e.callerID] == e {
		delete(q.byCaller, e.callerID)
	}

	q.signalHeadLocked()
	q.metrics.SetQueueDepth(len(q.entries))
}

func (q *Queue) signalHeadLocked() {
	if len(q.entries) == 0 {
		return
	}
	head := q.entries[0]
	if !head.signaled {
		head.signaled = true
		close(head.ready)
	}
}
