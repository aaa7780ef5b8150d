package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// postLocks serializes read-then-write sequences on the same post within
// this process. Posts hash onto a fixed set of mutexes, so unrelated posts
// occasionally share a stripe.
type postLocks struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe for postID and returns its unlock function.
func (l *postLocks) lock(postID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(postID))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
