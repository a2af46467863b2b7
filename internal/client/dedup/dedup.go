// Package dedup remembers which inbound messages a consumer has already
// acted on.
//
// The message log every consumer reads from only ever grows, so the set of
// processed fingerprints is bounded: once Capacity is reached the least
// recently seen fingerprint is forgotten.
package dedup

import (
	"container/list"
	"sync"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 1024

// Set is a fixed-capacity, recency-ordered set of fingerprints. It is safe
// for concurrent use.
type Set struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

func New(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Set{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Seen reports whether fp is in the set and refreshes its recency.
func (s *Set) Seen(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.index[fp]; ok {
		s.order.MoveToFront(e)
		return true
	}
	return false
}

// Add records fp, evicting the oldest entry when full.
func (s *Set) Add(fp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(fp)
}

// CheckAndAdd records fp and reports whether it was new.
func (s *Set) CheckAndAdd(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.index[fp]; ok {
		s.order.MoveToFront(e)
		return false
	}
	s.add(fp)
	return true
}

// Reset forgets every fingerprint.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order.Init()
	clear(s.index)
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *Set) Capacity() int {
	return s.capacity
}

func (s *Set) add(fp string) {
	if e, ok := s.index[fp]; ok {
		s.order.MoveToFront(e)
		return
	}
	s.index[fp] = s.order.PushFront(fp)

	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(string))
	}
}
