// Package chat defines the conversation domain model shared by the
// topic store, conversation cache, sync engine and view projection.
package chat

import (
	"errors"
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DeliveryState tracks a message through its remote round trip.
type DeliveryState string

const (
	// DeliveryPending marks an optimistic entry awaiting server confirmation.
	DeliveryPending DeliveryState = "pending"
	// DeliveryConfirmed marks an entry the server has recorded.
	DeliveryConfirmed DeliveryState = "confirmed"
	// DeliveryFailed marks an entry whose round trip ended in error.
	DeliveryFailed DeliveryState = "failed"
)

// DefaultCategory is assigned to topics created without an explicit label.
const DefaultCategory = "Uncategorized"

// Domain errors.
var (
	ErrEmptyMessage   = errors.New("message needs body text or an attachment")
	ErrInvalidTopic   = errors.New("invalid topic name")
	ErrDuplicateTopic = errors.New("topic already exists")
)

// Topic is a named conversation thread.
type Topic struct {
	// ID is the user-visible topic name, unique per account.
	ID string `json:"id"`

	// Category groups topics on the dashboard.
	Category string `json:"category"`

	// Visible controls whether the topic shows up in listings.
	Visible bool `json:"visible"`
}

// Message is a single entry in a topic's conversation.
type Message struct {
	// ServerID is assigned by the remote store; empty until confirmed.
	ServerID string `json:"server_id,omitempty"`

	// Role is the sender: user or assistant.
	Role Role `json:"role"`

	// Body is the message text. May be empty when an attachment is present.
	Body string `json:"body,omitempty"`

	// AttachmentURL is the server-confirmed location of an attachment.
	AttachmentURL string `json:"attachment_url,omitempty"`

	// PreviewHandle references a locally rendered attachment preview
	// while the upload is still in flight. Never persisted.
	PreviewHandle string `json:"-"`

	// State is the delivery state of this entry.
	State DeliveryState `json:"state"`

	// Loading marks the assistant placeholder shown while a reply is
	// being generated.
	Loading bool `json:"loading,omitempty"`

	// CreatedAt is the client-side creation time. Ordering within a
	// topic is by insertion order, not by this value.
	CreatedAt time.Time `json:"created_at"`
}

// HasContent reports whether the message carries body text or any
// attachment reference. Every cached message must satisfy this.
func (m Message) HasContent() bool {
	if m.Loading {
		return true
	}
	return strings.TrimSpace(m.Body) != "" || m.AttachmentURL != "" || m.PreviewHandle != ""
}

// Validate checks the message invariant.
func (m Message) Validate() error {
	if !m.HasContent() {
		return ErrEmptyMessage
	}
	return nil
}

// ValidateTopicID rejects blank topic names. Topic names are user-visible
// labels, so beyond non-blankness anything goes.
func ValidateTopicID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidTopic
	}
	return nil
}

// GreetingPair is the fixed two-message seed for a freshly created topic.
func GreetingPair(topicID string, now time.Time) []Message {
	return []Message{
		{
			Role:      RoleUser,
			Body:      "Hi! Let's talk about " + topicID + ".",
			State:     DeliveryConfirmed,
			CreatedAt: now,
		},
		{
			Role:      RoleAssistant,
			Body:      "Sure! Ask me anything about " + topicID + " and I'll do my best to help.",
			State:     DeliveryConfirmed,
			CreatedAt: now,
		},
	}
}
