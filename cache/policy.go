package cache

// EvictionPolicy selects which entry is removed when the cache is over
// its size budget.
type EvictionPolicy int

const (
	// EvictLRU removes the least recently accessed entry.
	EvictLRU EvictionPolicy = iota
	// EvictLFU removes the least frequently accessed entry.
	EvictLFU
	// EvictTTL removes the entry closest to expiry (oldest created).
	EvictTTL
)

// String returns the policy name.
func (p EvictionPolicy) String() string {
	switch p {
	case EvictLRU:
		return "lru"
	case EvictLFU:
		return "lfu"
	case EvictTTL:
		return "ttl"
	default:
		return "unknown"
	}
}

// worseVictim reports whether candidate should be evicted before
// current under the policy. A nil current always loses.
func (p EvictionPolicy) worseVictim(candidate, current *entry) bool {
	if current == nil {
		return true
	}
	switch p {
	case EvictLFU:
		return candidate.accessCount < current.accessCount
	case EvictTTL:
		return candidate.createdAt.Before(current.createdAt)
	default: // EvictLRU
		return candidate.lastAccessed.Before(current.lastAccessed)
	}
}
