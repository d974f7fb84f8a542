package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewChain_Resume(t *testing.T) {
	testCases := []struct {
		name        string
		start       uint64
		resumeAfter uint64
		expected    uint64
	}{
		{name: "Empty store starts at start", start: 1, resumeAfter: 0, expected: 1},
		{name: "Configured start ahead of store", start: 500, resumeAfter: 120, expected: 500},
		{name: "Store ahead of configured start", start: 100, resumeAfter: 100, expected: 101},
		{name: "Store far ahead", start: 1, resumeAfter: 9000, expected: 9001},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChain(tc.start, tc.resumeAfter, time.Minute)
			assert.Equal(t, tc.expected, c.Height())
		})
	}
}

func TestChain_Advance(t *testing.T) {
	c := NewChain(10, 0, time.Minute)
	assert.Equal(t, uint64(11), c.Advance())
	assert.Equal(t, uint64(11), c.Height())
}

func TestChain_RunAdvancesUntilCancelled(t *testing.T) {
	c := NewChain(1, 0, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.Height() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ledger to stop")
	}

	stopped := c.Height()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, c.Height())
}

func TestChain_RunWithoutIntervalReturns(t *testing.T) {
	c := NewChain(7, 0, 0)
	c.Run(context.Background())
	assert.Equal(t, uint64(7), c.Height())
}

func TestFixed(t *testing.T) {
	assert.Equal(t, uint64(100), Fixed(100).Height())
}
