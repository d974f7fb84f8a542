// Package ledger provides the logical block height stamped onto registrations.
package ledger

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Fixed is a height source that never advances.
type Fixed uint64

// Height returns h.
func (h Fixed) Height() uint64 {
	return uint64(h)
}

// Chain is a height source that advances one block per interval.
type Chain struct {
	height   atomic.Uint64
	interval time.Duration
}

// NewChain creates a chain positioned at the larger of start and
// resumeAfter+1, so a restarted chain never reissues a height already
// stamped onto a stored record.
func NewChain(start, resumeAfter uint64, interval time.Duration) *Chain {
	c := &Chain{interval: interval}
	if resumeAfter >= start {
		start = resumeAfter + 1
	}
	c.height.Store(start)
	return c
}

// Height returns the current block height.
func (c *Chain) Height() uint64 {
	return c.height.Load()
}

// Advance moves the chain forward one block and returns the new height.
func (c *Chain) Advance() uint64 {
	return c.height.Add(1)
}

// Run advances the chain every interval until ctx is cancelled.
func (c *Chain) Run(ctx context.Context) {
	if c.interval <= 0 {
		log.Println("Ledger block interval is not positive. Height will stay fixed.")
		return
	}
	log.Printf("Starting ledger at height %d (block interval %s)", c.Height(), c.interval)

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Ledger stopping at height %d.", c.Height())
			return
		case <-timer.C:
			c.Advance()
			timer.Reset(c.interval)
		}
	}
}
