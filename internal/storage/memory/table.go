// Package memory provides in-process repositories for every domain store.
// They back the memory storage driver used in development and tests.
package memory

import (
	"sync"
)

// table is a thread-safe keyed collection that lists in insertion order.
type table[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{items: make(map[string]T)}
}

// set stores item under id. Overwriting keeps the original position.
func (t *table[T]) set(id string, item T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(id, item)
}

func (t *table[T]) setLocked(id string, item T) {
	if _, ok := t.items[id]; !ok {
		t.order = append(t.order, id)
	}
	t.items[id] = item
}

// insert stores item only if id is unused.
func (t *table[T]) insert(id string, item T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[id]; ok {
		return false
	}
	t.setLocked(id, item)
	return true
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[id]
	return item, ok
}

func (t *table[T]) delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[id]; !ok {
		return false
	}
	delete(t.items, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// update applies fn to the item under id while holding the write lock.
func (t *table[T]) update(id string, fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[id]
	if !ok {
		return false
	}
	fn(&item)
	t.items[id] = item
	return true
}

// updateWhere applies fn to every item accepted by match and returns how
// many were changed.
func (t *table[T]) updateWhere(match func(T) bool, fn func(*T)) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, id := range t.order {
		item := t.items[id]
		if !match(item) {
			continue
		}
		fn(&item)
		t.items[id] = item
		n++
	}
	return n
}

// list returns the items accepted by match in insertion order. A nil match
// accepts everything.
func (t *table[T]) list(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		item := t.items[id]
		if match == nil || match(item) {
			out = append(out, item)
		}
	}
	return out
}
