package metrics

import (
	"sync/atomic"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// Reconciliation groups the payment reconciliation counters.
type Reconciliation struct {
	Polls        Counter
	PollFailures Counter
	PaidEdges    Counter
	FailedEdges  Counter
}

func NewReconciliation() *Reconciliation {
	return &Reconciliation{}
}
