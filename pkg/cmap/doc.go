// Package cmap provides a sharded, concurrency-safe map keyed by strings.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex. Reads (Get, Has) take a read lock on
// one shard, writes (Set, Pop, SetIfAbsent) a write lock on one shard.
// Range and Snapshot visit shards one at a time and never hold more than one
// shard lock.
//
//	m := cmap.New[*Session]()
//	m.SetIfAbsent(key, s)
//	s, ok := m.Get(key)
package cmap
