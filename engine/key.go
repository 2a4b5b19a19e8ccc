package engine

import "fmt"

// ConversationKey identifies one conversation scope: a tenant instance plus
// the remote party. Comparable, so it can key the pending-aggregate map.
type ConversationKey struct {
	Instance     string
	Conversation string
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("%s/%s", k.Instance, k.Conversation)
}
