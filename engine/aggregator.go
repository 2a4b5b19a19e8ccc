package engine

import (
	"log"
	"sync"
	"time"
)

// Dispatcher receives the flushed composite. In production this is the
// responder path (AI reply + WhatsApp send); tests plug in fakes.
type Dispatcher interface {
	Dispatch(key ConversationKey, composite string, items []InputItem) error
}

// DispatchFunc adapts a plain function to Dispatcher.
type DispatchFunc func(key ConversationKey, composite string, items []InputItem) error

func (f DispatchFunc) Dispatch(key ConversationKey, composite string, items []InputItem) error {
	return f(key, composite, items)
}

// pendingAggregate is one in-flight coalescing episode for a conversation.
type pendingAggregate struct {
	items         []InputItem
	createdAt     time.Time
	lastUpdatedAt time.Time
	delay         time.Duration // fixed at creation; appends never change it
	timer         *time.Timer
	gen           uint64 // bumped on every reschedule; stale timer fires are no-ops
}

// Aggregator coalesces bursts of inbound items per conversation. Each burst
// accumulates in a pending aggregate whose timer is reset on every arrival;
// when the conversation goes quiet for the aggregate's delay, the items are
// flushed, in arrival order, as one composite message.
//
// At most one pending aggregate exists per key. The aggregate is removed
// from the map before Dispatch is called, so an item arriving mid-dispatch
// starts a fresh aggregate instead of appending to one being flushed.
type Aggregator struct {
	mu       sync.Mutex
	pending  map[ConversationKey]*pendingAggregate
	dispatch Dispatcher
}

func NewAggregator(dispatch Dispatcher) *Aggregator {
	return &Aggregator{
		pending:  make(map[ConversationKey]*pendingAggregate),
		dispatch: dispatch,
	}
}

// Submit queues one inbound item. The first item of a burst fixes the
// debounce window; later arrivals reset the timer (cancel-and-reschedule,
// never additive) but keep the original window. delay 0 flushes the single
// item on the next timer tick.
func (a *Aggregator) Submit(key ConversationKey, item InputItem, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	now := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if agg, ok := a.pending[key]; ok {
		agg.items = append(agg.items, item)
		agg.lastUpdatedAt = now
		agg.timer.Stop()
		agg.gen++
		gen := agg.gen
		agg.timer = time.AfterFunc(agg.delay, func() { a.flush(key, agg, gen) })
		return
	}

	agg := &pendingAggregate{
		items:         []InputItem{item},
		createdAt:     now,
		lastUpdatedAt: now,
		delay:         delay,
	}
	agg.timer = time.AfterFunc(delay, func() { a.flush(key, agg, 0) })
	a.pending[key] = agg
}

// flush removes the aggregate and hands its items to the dispatcher. A late
// timer fire is a no-op: the aggregate must still be the one the timer was
// armed for AND at the generation it was armed with. The generation check
// covers a timer that fired right before a reset and was blocked on the
// mutex while Submit rescheduled it (Stop returns false in that window).
func (a *Aggregator) flush(key ConversationKey, agg *pendingAggregate, gen uint64) {
	a.mu.Lock()
	current, ok := a.pending[key]
	if !ok || current != agg || current.gen != gen {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	items := current.items
	a.mu.Unlock()

	composite := Composite(items)
	if err := a.dispatch.Dispatch(key, composite, items); err != nil {
		// Flush is fire-and-forget: the aggregate is already gone, a failed
		// composite is not re-sent. The next inbound item starts clean.
		log.Printf("aggregator: dispatch error for %s: %v", key, err)
	}
}

// Discard drops any pending aggregate for the key without flushing.
// Discarding an unknown key is a no-op.
func (a *Aggregator) Discard(key ConversationKey) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if agg, ok := a.pending[key]; ok {
		agg.timer.Stop()
		delete(a.pending, key)
	}
}

// Len reports how many conversations currently have a pending aggregate.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
