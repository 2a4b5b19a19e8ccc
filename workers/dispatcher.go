package workers

import (
	"context"
	"fmt"
	"time"

	"maritaca/engine"
	"maritaca/models"

	"github.com/jinzhu/gorm"
)

// Responder produces the outbound reply for a flushed composite.
// Production wiring is tools.GenerateAIReply.
type Responder func(ctx context.Context, input string) (string, error)

// ResponderDispatcher is the aggregator's flush target: it asks the
// responder for a reply, sends it through the transport and records an
// Event audit row with the outcome. The aggregate itself is gone by the
// time this runs, so the Event row is the only durable trace.
type ResponderDispatcher struct {
	DB        *gorm.DB
	Respond   Responder
	Transport Transport
}

func (d *ResponderDispatcher) Dispatch(key engine.ConversationKey, composite string, items []engine.InputItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	reply, err := d.Respond(ctx, composite)
	if err != nil {
		d.record(key, composite, "", fmt.Errorf("responder: %w", err))
		return fmt.Errorf("responder: %w", err)
	}

	if err := d.Transport.Send(ctx, key.Instance, key.Conversation, reply); err != nil {
		d.record(key, composite, reply, fmt.Errorf("send: %w", err))
		return fmt.Errorf("send: %w", err)
	}

	d.record(key, composite, reply, nil)
	return nil
}

func (d *ResponderDispatcher) record(key engine.ConversationKey, composite, reply string, dispatchErr error) {
	if d.DB == nil {
		return
	}

	now := time.Now()
	ev := models.Event{
		InstanceID:   key.Instance,
		Conversation: key.Conversation,
		Text:         composite,
		ReplyText:    reply,
		Status:       models.EVENT_STATUS_DONE,
		ProcessedAt:  &now,
	}
	if dispatchErr != nil {
		ev.Status = models.EVENT_STATUS_FAILED
		ev.Error = dispatchErr.Error()
	}
	// Audit write is best effort; the dispatch outcome already went to the log.
	_ = d.DB.Create(&ev).Error
}
