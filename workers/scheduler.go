package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"maritaca/models"
	"maritaca/store"
)

// Transport delivers one outbound message for an instance. Production wiring
// is tools.WhatsAppTransport; tests plug in fakes.
type Transport interface {
	Send(ctx context.Context, instance, conversation, body string) error
}

// Scheduler polls for due scheduled messages on a fixed cadence, dispatches
// them oldest-first through the transport and records a terminal outcome per
// row. Delivery is at-most-once: a failed row stays failed, re-delivery
// means a new enqueue.
type Scheduler struct {
	store     *store.ScheduledMessages
	transport Transport
	interval  time.Duration
	batch     int

	mu      sync.Mutex
	running bool
}

func NewScheduler(st *store.ScheduledMessages, transport Transport, interval time.Duration, batch int) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Scheduler{
		store:     st,
		transport: transport,
		interval:  interval,
		batch:     batch,
	}
}

// Start runs the polling loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Tick runs one poll cycle. If a previous cycle is still dispatching
// (slow transport), the tick is skipped so the same due set is never
// processed twice.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("scheduler: tick ainda em andamento, pulando")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	instances, err := s.store.Instances()
	if err != nil {
		log.Printf("scheduler: instances error: %v", err)
		return
	}

	for _, instance := range instances {
		s.processInstance(ctx, instance)
	}
}

func (s *Scheduler) processInstance(ctx context.Context, instance string) {
	due, err := s.store.FetchDue(instance, s.batch)
	if err != nil {
		log.Printf("scheduler: fetch due error (instance=%s): %v", instance, err)
		return
	}

	for _, msg := range due {
		s.dispatch(ctx, msg)
	}
}

// dispatch sends one row and persists the outcome. A failure here is
// terminal for the row and never aborts the rest of the batch.
func (s *Scheduler) dispatch(ctx context.Context, msg models.ScheduledMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if err := s.transport.Send(sendCtx, msg.InstanceID, msg.Conversation, msg.Body); err != nil {
		log.Printf("scheduler: send error id=%d conversation=%s: %v", msg.ID, msg.Conversation, err)
		if uerr := s.store.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_FAILED, err.Error()); uerr != nil {
			log.Printf("scheduler: update status error id=%d: %v", msg.ID, uerr)
		}
		return
	}

	if err := s.store.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		log.Printf("scheduler: update status error id=%d: %v", msg.ID, err)
	}
}
