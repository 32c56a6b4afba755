package hmmlib

import (
	"math"
	"sync"
)

// BestTracker holds the largest log-likelihood seen by any run of a model
// search.  It is shared by concurrent runs and is only used for pruning.
type BestTracker struct {
	mu  sync.Mutex
	llf float64
}

// NewBestTracker returns a tracker that has not seen any value yet.
func NewBestTracker() *BestTracker {
	return &BestTracker{llf: math.Inf(-1)}
}

// Get returns the current maximum.
func (bt *BestTracker) Get() float64 {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return bt.llf
}

// Max raises the maximum to llf if llf is larger, and returns the
// resulting maximum.  NaN values are ignored.
func (bt *BestTracker) Max(llf float64) float64 {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	if llf > bt.llf {
		bt.llf = llf
	}
	return bt.llf
}

// Reset forgets every value seen so far.
func (bt *BestTracker) Reset() {
	bt.mu.Lock()
	bt.llf = math.Inf(-1)
	bt.mu.Unlock()
}
