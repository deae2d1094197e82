// Package blocknum tracks the latest block number observed by the native
// client's sync loop.
package blocknum

import (
	"sync"

	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
)

// Tracker is a nativeclient.Listener that records the most recent
// synced block number.
type Tracker struct {
	mu     sync.RWMutex
	latest uint64
}

// New returns a Tracker starting at block 0.
func New() *Tracker {
	return &Tracker{}
}

// Latest returns the most recently observed block number.
func (t *Tracker) Latest() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}

// OnSync implements nativeclient.Listener.
func (t *Tracker) OnSync(summary nativeclient.SyncSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = summary.BlockNum
}
