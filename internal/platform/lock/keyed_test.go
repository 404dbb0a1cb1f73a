package lock

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("record-1")
			defer km.Unlock("record-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("expected 100 increments, got %d", counter)
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock("record-1")
	done := make(chan struct{})
	go func() {
		// A different key must not block.
		km.Lock("record-2")
		km.Unlock("record-2")
		close(done)
	}()
	<-done
	km.Unlock("record-1")
}

func TestKeyedMutex_ReusesMutexPerKey(t *testing.T) {
	km := NewKeyedMutex()
	a := km.get("r")
	b := km.get("r")
	if a != b {
		t.Error("expected the same mutex instance for one key")
	}
	if km.get("s") == a {
		t.Error("expected distinct mutexes for distinct keys")
	}
}
