package sessions

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(id)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Expected 50 increments, got %d", counter)
	}
	if k.size() != 0 {
		t.Errorf("Expected lock table to be empty, got %d entries", k.size())
	}

	// different ids do not block each other
	unlockA := k.Lock(uuid.New())
	unlockB := k.Lock(uuid.New())
	unlockB()
	unlockA()
}
