package coordinator

import "time"

// slot records the outcome of one operation kind.
type slot struct {
	pending   bool
	settled   bool
	err       error
	seq       uint64 // settle order across all slots; 0 = never settled
	settledAt time.Time
}

func (s *slot) outcome() Outcome {
	o := Outcome{Err: s.err, SettledAt: s.settledAt}
	switch {
	case s.pending:
		o.Status = StatusPending
	case s.err != nil:
		o.Status = StatusFailed
	case s.settled:
		o.Status = StatusSucceeded
	default:
		o.Status = StatusIdle
	}
	return o
}

// nextSeqLocked returns the next settle sequence number. Caller holds c.mu.
func (c *Coordinator) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

// succeedLocked clears the slot's failure. Other slots are left untouched.
func (c *Coordinator) succeedLocked(s *slot) {
	s.pending = false
	s.settled = true
	s.err = nil
	s.seq = c.nextSeqLocked()
	s.settledAt = time.Now()
}

// failLocked records err as the slot's most recent failure. A rejection of an
// overlapping call goes through here too and leaves pending untouched so the
// in-flight call stays observable.
func (c *Coordinator) failLocked(s *slot, err error, endsPending bool) {
	if endsPending {
		s.pending = false
	}
	s.settled = true
	s.err = err
	s.seq = c.nextSeqLocked()
	s.settledAt = time.Now()
}

// aggregateErrLocked returns the most recently settled failure among the
// three slots, or nil.
func (c *Coordinator) aggregateErrLocked() error {
	var (
		best    error
		bestSeq uint64
	)
	for _, s := range []*slot{&c.load, &c.unload, &c.generate} {
		if s.err != nil && s.seq > bestSeq {
			best, bestSeq = s.err, s.seq
		}
	}
	return best
}

func (c *Coordinator) slotFor(op Op) *slot {
	switch op {
	case OpLoad:
		return &c.load
	case OpUnload:
		return &c.unload
	default:
		return &c.generate
	}
}
