package services

import "sync"

// convLocks serializes inbound handling per conversation. Two messages
// racing into the same conversation would otherwise interleave assistant
// runs on a single thread; cross-conversation concurrency stays unbounded.
type convLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func newConvLocks() *convLocks {
	return &convLocks{locks: make(map[string]*convLock)}
}

// Lock acquires the lock for the given conversation and returns the matching
// unlock function. Entries are reference counted and removed once idle so the
// map does not grow with conversation history.
func (c *convLocks) Lock(conversationID string) func() {
	c.mu.Lock()
	l, ok := c.locks[conversationID]
	if !ok {
		l = &convLock{}
		c.locks[conversationID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, conversationID)
		}
		c.mu.Unlock()
	}
}
