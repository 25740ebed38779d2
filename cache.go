package swapicache

import (
	"hash/fnv"
	"sort"
	"sync"
)

// Store maps resource keys to previously fetched documents.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (Document, bool)
	Set(key string, doc Document)
	Len() int
	Keys() []string
}

// MemoryStore is an unbounded in-memory Store. Entries never expire.
type MemoryStore struct {
	shards    []*storeShard
	numShards int
}

type storeShard struct {
	mu    sync.RWMutex
	store map[string]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	numShards := 16
	shards := make([]*storeShard, numShards)
	for i := range shards {
		shards[i] = &storeShard{
			store: make(map[string]Document),
		}
	}
	return &MemoryStore{
		shards:    shards,
		numShards: numShards,
	}
}

func (s *MemoryStore) getShard(key string) *storeShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return s.shards[hash.Sum32()%uint32(s.numShards)]
}

// Get returns the stored document for key.
func (s *MemoryStore) Get(key string) (Document, bool) {
	shard := s.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	doc, exists := shard.store[key]
	return doc, exists
}

// Set stores doc under key, replacing any previous document.
func (s *MemoryStore) Set(key string, doc Document) {
	shard := s.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.store[key] = doc
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}

// Keys returns the stored keys in lexical order.
func (s *MemoryStore) Keys() []string {
	var keys []string
	for _, shard := range s.shards {
		shard.mu.RLock()
		for key := range shard.store {
			keys = append(keys, key)
		}
		shard.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

var _ Store = (*MemoryStore)(nil)
