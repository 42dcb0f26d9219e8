package web

import "sync"

// Inflight tracks which browser sessions have a trip being generated, so a
// double-submitted form does not create two trips.
type Inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInflight() *Inflight {
	return &Inflight{keys: make(map[string]struct{})}
}

// Acquire reports whether key was free and marks it busy.
// An empty key is never tracked.
func (f *Inflight) Acquire(key string) bool {
	if f == nil || key == "" {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *Inflight) Release(key string) {
	if f == nil || key == "" {
		return
	}
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

func (f *Inflight) Busy(key string) bool {
	if f == nil || key == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}
