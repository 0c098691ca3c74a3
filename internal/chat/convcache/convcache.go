// Package convcache owns the in-memory conversation log: the ordered
// message sequence for every topic. The sync engine is its only writer;
// the view projection only reads.
package convcache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat"
)

// Handle identifies a single cached entry so an optimistic message can
// be found again after its round trip completes, regardless of what was
// appended or dropped in between.
type Handle string

type entry struct {
	handle  Handle
	message chat.Message
}

// Cache maps topic identifiers to their ordered message sequences.
type Cache struct {
	mu     sync.Mutex
	topics map[string][]entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{topics: make(map[string][]entry)}
}

// Messages returns a copy of the topic's sequence in insertion order.
// Unknown topics yield an empty slice.
func (c *Cache) Messages(topicID string) []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.topics[topicID]
	out := make([]chat.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.message)
	}
	return out
}

// Len returns the number of messages cached for the topic.
func (c *Cache) Len(topicID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.topics[topicID])
}

// HasMessages reports whether the topic has at least one cached message.
func (c *Cache) HasMessages(topicID string) bool {
	return c.Len(topicID) > 0
}

// Append adds the message to the end of the topic's sequence and
// returns a handle for later Replace/Drop calls.
func (c *Cache) Append(topicID string, message chat.Message) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := Handle(uuid.NewString())
	c.topics[topicID] = append(c.topics[topicID], entry{handle: h, message: message})
	return h
}

// Seed replaces the topic's whole sequence. Used on initial load.
func (c *Cache) Seed(topicID string, messages []chat.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, entry{handle: Handle(uuid.NewString()), message: m})
	}
	c.topics[topicID] = entries
}

// Replace substitutes the entry at handle with the updated message.
// If the handle no longer exists (topic deleted meanwhile) the call is
// a silent no-op; the server's version has already won.
func (c *Cache) Replace(topicID string, h Handle, updated chat.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.topics[topicID]
	for i := range entries {
		if entries[i].handle == h {
			entries[i].message = updated
			return true
		}
	}
	return false
}

// Drop removes the entry at handle entirely. Used to roll back an
// optimistic entry the server never recorded. Silent no-op on a dead
// handle.
func (c *Cache) Drop(topicID string, h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.topics[topicID]
	for i := range entries {
		if entries[i].handle == h {
			c.topics[topicID] = append(entries[:i:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the message at handle, if it still exists.
func (c *Cache) Get(topicID string, h Handle) (chat.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.topics[topicID] {
		if e.handle == h {
			return e.message, true
		}
	}
	return chat.Message{}, false
}

// RemoveTopic deletes the topic's whole sequence.
func (c *Cache) RemoveTopic(topicID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.topics, topicID)
}

// TopicIDs returns the identifiers of all cached topics, in no
// particular order.
func (c *Cache) TopicIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.topics))
	for id := range c.topics {
		out = append(out, id)
	}
	return out
}
