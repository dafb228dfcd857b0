// Package cache provides a size-bounded, expiring key/value cache.
package cache

// Expiring is a cache whose entries leave by capacity, age or predicate.
type Expiring[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeleteFunc(fn func(key string, data T) bool) int
	CleanExpired() int
	Size() int
}

var _ Expiring[int] = (*LRUCache[int])(nil)
