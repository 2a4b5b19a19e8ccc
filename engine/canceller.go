package engine

// ScheduleStore is the slice of the scheduled-message store the canceller
// needs. Satisfied by *store.ScheduledMessages.
type ScheduleStore interface {
	MarkPendingFailed(instance, conversation, reason string) (int64, error)
	DeleteByTag(instance, conversation, tag string) (int64, error)
	DeleteByTipo(instance, conversation, tipo string) (int64, error)
}

// Canceller interrupts queued follow-ups when a conversation-level event
// makes them stale. It only delegates to the store; the status rules
// (pending-only sweep vs unconditional deletes) live there.
type Canceller struct {
	store ScheduleStore
}

func NewCanceller(store ScheduleStore) *Canceller {
	return &Canceller{store: store}
}

// ContactReplied sweeps the conversation's pending follow-ups to failed.
// Called when an inbound message arrives: a human reply supersedes whatever
// automation was queued. Sent and already-failed rows are untouched.
func (c *Canceller) ContactReplied(key ConversationKey) (int64, error) {
	return c.store.MarkPendingFailed(key.Instance, key.Conversation, "cancelado: contato respondeu")
}

// CancelTag removes every scheduled message with the tag, regardless of
// status. An operator naming a tag means full removal of that campaign.
func (c *Canceller) CancelTag(key ConversationKey, tag string) (int64, error) {
	return c.store.DeleteByTag(key.Instance, key.Conversation, tag)
}

// CancelTipo removes every scheduled message of the category, regardless of
// status.
func (c *Canceller) CancelTipo(key ConversationKey, tipo string) (int64, error) {
	return c.store.DeleteByTipo(key.Instance, key.Conversation, tipo)
}
