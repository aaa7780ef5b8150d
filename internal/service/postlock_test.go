package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostLocks_SerializeSamePost(t *testing.T) {
	var locks postLocks
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("post-1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
