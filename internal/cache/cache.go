// Package cache holds small in-process caches used in front of remote lookups.
package cache

// Cache is a string-keyed store of T values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// Len counts the entries currently held, expired ones excluded.
	Len() int
}

// GetOrLoad returns the cached value for key, calling load and storing its
// result on a miss. Failed loads are not cached.
func GetOrLoad[T any](c Cache[T], key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}
