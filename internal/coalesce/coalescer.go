// Package coalesce buffers synchronization messages with last-write-wins
// semantics per (kind, key).
package coalesce

import (
	"sync"

	"tabsync/internal/types"
)

type bufferKey struct {
	kind types.MessageKind
	key  string
}

type Coalescer struct {
	mu      sync.Mutex
	entries map[bufferKey]types.Message
}

func New() *Coalescer {
	return &Coalescer{entries: map[bufferKey]types.Message{}}
}

// Buffer stores msg under its kind and key, replacing any unread entry. It
// returns true when an unread entry already existed: the caller that
// buffered it will pick up msg, so this delivery has nothing left to do.
func (c *Coalescer) Buffer(msg types.Message, key string) bool {
	if c == nil || msg == nil {
		return false
	}
	k := bufferKey{kind: msg.Kind(), key: key}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[bufferKey]types.Message{}
	}
	_, existed := c.entries[k]
	c.entries[k] = msg
	return existed
}

// Take returns and clears the entry for (kind, key).
func (c *Coalescer) Take(kind types.MessageKind, key string) (types.Message, bool) {
	if c == nil {
		return nil, false
	}
	k := bufferKey{kind: kind, key: key}
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.entries[k]
	if ok {
		delete(c.entries, k)
	}
	return msg, ok
}

func (c *Coalescer) Pending() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
