/*
	LRU Cache package

	Based off information obtained from:

	https://girai.dev/blog/lru-cache-implementation-in-go/
	https://en.wikipedia.org/wiki/Cache_replacement_policies#Least_recently_used_(LRU)
*/

package cache

import "container/list"

// LRU is a fixed capacity least recently used cache. It is not safe for
// concurrent use
type LRU[K comparable, V any] struct {
	Cap   uint64
	l     *list.List
	items map[K]*list.Element
}

type item[K comparable, V any] struct {
	key   K
	value V
}

// NewLRUCache returns a new non-concurrent-safe LRU cache with input capacity
func NewLRUCache[K comparable, V any](capacity uint64) *LRU[K, V] {
	return &LRU[K, V]{
		Cap:   capacity,
		l:     list.New(),
		items: make(map[K]*list.Element),
	}
}

// Add adds a value to the cache, evicting the oldest entry when full
func (l *LRU[K, V]) Add(key K, value V) {
	if f, o := l.items[key]; o {
		l.l.MoveToFront(f)
		f.Value.(*item[K, V]).value = value
		return
	}

	l.items[key] = l.l.PushFront(&item[K, V]{key, value})
	if l.Len() > l.Cap {
		l.removeOldestEntry()
	}
}

// ContainsOrAdd checks for the key without updating recency and adds it if
// missing. Returns true when the key was already present
func (l *LRU[K, V]) ContainsOrAdd(key K, value V) bool {
	if l.Contains(key) {
		return true
	}
	l.Add(key, value)
	return false
}

// Get returns keys value from cache if found
func (l *LRU[K, V]) Get(key K) (value V, found bool) {
	if i, f := l.items[key]; f {
		l.l.MoveToFront(i)
		return i.Value.(*item[K, V]).value, true
	}
	return value, false
}

// Contains check if key is in cache this does not update LRU
func (l *LRU[K, V]) Contains(key K) (f bool) {
	_, f = l.items[key]
	return
}

// Remove removes key from the cache, if the key was removed.
func (l *LRU[K, V]) Remove(key K) bool {
	if i, f := l.items[key]; f {
		l.removeElement(i)
		return true
	}
	return false
}

// Keys returns the keys from newest to oldest
func (l *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, l.l.Len())
	for e := l.l.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*item[K, V]).key)
	}
	return keys
}

// Clear is used to completely clear the cache.
func (l *LRU[K, V]) Clear() {
	clear(l.items)
	l.l.Init()
}

// Len returns length of l
func (l *LRU[K, V]) Len() uint64 {
	return uint64(l.l.Len())
}

// removeOldestEntry removes the oldest item from the cache.
func (l *LRU[K, V]) removeOldestEntry() {
	if i := l.l.Back(); i != nil {
		l.removeElement(i)
	}
}

// removeElement element from the cache
func (l *LRU[K, V]) removeElement(e *list.Element) {
	l.l.Remove(e)
	delete(l.items, e.Value.(*item[K, V]).key)
}
