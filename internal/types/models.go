package types

import "time"

// Sender identifies which side of the conversation wrote a message.
type Sender string

const (
	SenderFan     Sender = "fan"
	SenderCreator Sender = "creator"
)

// Message is one timestamped chat line between a fan and a creator.
type Message struct {
	Timestamp      time.Time `json:"timestamp"`
	Sender         Sender    `json:"sender"`
	Text           string    `json:"text"`
	Purchase       bool      `json:"purchase"`
	PurchaseAmount float64   `json:"purchase_amount,omitempty"`
	ChurnMarker    bool      `json:"churn_marker,omitempty"`
	IsSystem       bool      `json:"is_system,omitempty"`
}

// Conversation is the full ordered message history between one fan and one
// creator account. Immutable once loaded.
type Conversation struct {
	FanID     string    `json:"fan_id"`
	CreatorID string    `json:"creator_id"`
	Messages  []Message `json:"messages"`
}

// FanCreatorID is the composite key used throughout the pipeline.
func (c Conversation) FanCreatorID() string {
	return c.FanID + "_" + c.CreatorID
}

// FanText concatenates all fan-authored message texts, newline separated.
// This is the exact text window that gets profiled and embedded, so its
// construction must stay stable: changing it changes every fingerprint.
func (c Conversation) FanText() string {
	out := ""
	for _, m := range c.Messages {
		if m.Sender != SenderFan || m.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += m.Text
	}
	return out
}
