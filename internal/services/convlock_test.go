package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvLocksSerializesSameConversation(t *testing.T) {
	locks := newConvLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		max     int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("conv_1")
			defer unlock()

			mu.Lock()
			current++
			if current > max {
				max = current
			}
			mu.Unlock()

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "at most one holder per conversation")
}

func TestConvLocksReleasesIdleEntries(t *testing.T) {
	locks := newConvLocks()

	unlock := locks.Lock("conv_1")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestConvLocksIndependentConversations(t *testing.T) {
	locks := newConvLocks()

	unlockA := locks.Lock("conv_a")
	// conv_b must not block while conv_a is held.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("conv_b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
