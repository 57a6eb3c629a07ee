package vipsock

import "sync"

// registry is the set of live subscriptions. All access to the collection
// goes through the mutex; it is the sole correctness boundary between the
// connection handler inserting entries and event deliveries removing them.
// The lock is held only for collection mutation, never across a descriptor
// write.
type registry struct {
	mu   sync.Mutex
	subs []*subscriber
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) insert(s *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, s)
}

// remove reports whether s was still present. Exactly one caller observes
// true, which makes it the gate for closing the entry's descriptor when
// concurrent deliveries all see the same dead client.
func (r *registry) remove(s *subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.subs {
		if cur == s {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// drain atomically takes every remaining entry, leaving the registry empty.
// Used at teardown so each subscriber descriptor is closed exactly once.
func (r *registry) drain() []*subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subs
	r.subs = nil
	return subs
}
