package coordinator

import "sync"

// broadcaster delivers snapshots to subscribers. Each subscriber channel holds
// only the latest snapshot; a slow reader misses intermediate states but never
// blocks the coordinator.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Snapshot
}

func (b *broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e.Snapshot:
			continue
		default:
		}
		// Drop the stale snapshot and replace it with the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- e.Snapshot:
		default:
		}
	}
}

func (b *broadcaster) subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan Snapshot)
	}
	id := b.next
	b.next++
	ch := make(chan Snapshot, 1)
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}
