// Package client subscribes to the synchronization messages published by
// the tree owner.
package client

import (
	"context"

	"tabsync/internal/types"
)

const messageBufferSize = 256

// Source delivers decoded messages until ctx is done or the returned
// cancel func is called. The channel is closed when the subscription ends.
type Source interface {
	Subscribe(ctx context.Context) (<-chan types.Message, func(), error)
}

// deliver blocks until msg is accepted or ctx is done.
func deliver(ctx context.Context, ch chan<- types.Message, msg types.Message) bool {
	select {
	case ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
