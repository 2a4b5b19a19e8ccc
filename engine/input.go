package engine

import "strings"

// InputItem is one inbound event queued for aggregation. It is a sealed
// union: TextItem, MediaItem or ContactItem. Items are consumed as-is when
// the aggregate flushes, never mutated.
type InputItem interface {
	// describe renders the item as one line of the composite message.
	describe() string
}

type TextItem struct {
	Body string
}

func (t TextItem) describe() string { return t.Body }

// MediaItem carries a media reference (Cloud API media id) plus whatever
// caption came with it. The engine never downloads media; the caption is
// what reaches the responder.
type MediaItem struct {
	Kind      string // image, audio, video, document
	Reference string
	Caption   string
}

func (m MediaItem) describe() string {
	kind := m.Kind
	if kind == "" {
		kind = "midia"
	}
	if strings.TrimSpace(m.Caption) == "" {
		return "[" + kind + "]"
	}
	return "[" + kind + "] " + strings.TrimSpace(m.Caption)
}

// ContactItem carries a shared-contact payload (raw JSON from the webhook).
type ContactItem struct {
	Payload string
}

func (c ContactItem) describe() string {
	if strings.TrimSpace(c.Payload) == "" {
		return "[contato]"
	}
	return "[contato] " + strings.TrimSpace(c.Payload)
}

// Composite assembles the flushed items into one message for the responder,
// preserving arrival order.
func Composite(items []InputItem) string {
	var b strings.Builder
	for _, it := range items {
		line := strings.TrimSpace(it.describe())
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	return b.String()
}
