package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mtuyar/habitd/internal/model"
)

var (
	ErrInvalidTrigger = errors.New("scheduler: invalid trigger")
	ErrStopped        = errors.New("scheduler: engine stopped")
)

// Trigger is either a daily wall-clock time (Repeats) or an absolute instant.
type Trigger struct {
	At      time.Time
	Hour    int
	Minute  int
	Repeats bool
}

func (t Trigger) Validate() error {
	if t.Repeats {
		if err := (model.TimeOfDay{Hour: t.Hour, Minute: t.Minute}).Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTrigger, err)
		}
		return nil
	}
	if t.At.IsZero() {
		return fmt.Errorf("%w: missing instant", ErrInvalidTrigger)
	}
	return nil
}

func (t Trigger) next(now time.Time) time.Time {
	if t.Repeats {
		return model.NextOccurrence(now, model.TimeOfDay{Hour: t.Hour, Minute: t.Minute})
	}
	return t.At
}

type Request struct {
	ID      string
	Title   string
	Body    string
	Trigger Trigger
}

type Event struct {
	ID      string
	Title   string
	Body    string
	Due     time.Time
	FiredAt time.Time
	Repeats bool
}

type queueItem struct {
	req Request
	at  time.Time
	seq uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].at.Before(pq[j].at)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine is an in-process notification host. Registrations are keyed by id;
// scheduling an existing id replaces it. Cancelled entries are dropped lazily
// when they reach the head of the queue.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	active  map[string]uint64
	seq     uint64
	now     func() time.Time
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		active: make(map[string]uint64),
		now:    time.Now,
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.ID) == "" {
		return "", errors.New("scheduler: request id is required")
	}
	if err := req.Trigger.Validate(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return "", ErrStopped
	}

	e.seq++
	e.active[req.ID] = e.seq
	heap.Push(&e.queue, queueItem{req: req, at: req.Trigger.next(e.now()), seq: e.seq})
	e.signalWakeup()
	return req.ID, nil
}

// Cancel removes the registration for id. Unknown ids are not an error.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.active[id]; ok {
		delete(e.active, id)
		e.signalWakeup()
	}
	return nil
}

func (e *Engine) CancelAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = make(map[string]uint64)
	e.queue = e.queue[:0]
	e.signalWakeup()
	return nil
}

func (e *Engine) Active(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[id]
	return ok
}

func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// NextDue reports when the registration for id fires next.
func (e *Engine) NextDue(id string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq, ok := e.active[id]
	if !ok {
		return time.Time{}, false
	}
	for _, item := range e.queue {
		if item.req.ID == id && item.seq == seq {
			return item.at, true
		}
	}
	return time.Time{}, false
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(e.now())
			for _, ev := range due {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discardStale()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].at, true
}

func (e *Engine) discardStale() {
	for len(e.queue) > 0 {
		head := e.queue[0]
		if e.active[head.req.ID] == head.seq {
			return
		}
		heap.Pop(&e.queue)
	}
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Event, 0)
	for {
		e.discardStale()
		if len(e.queue) == 0 || e.queue[0].at.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		out = append(out, Event{
			ID:      item.req.ID,
			Title:   item.req.Title,
			Body:    item.req.Body,
			Due:     item.at,
			FiredAt: now,
			Repeats: item.req.Trigger.Repeats,
		})
		if item.req.Trigger.Repeats {
			item.at = item.req.Trigger.next(now)
			heap.Push(&e.queue, item)
		} else {
			delete(e.active, item.req.ID)
		}
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
