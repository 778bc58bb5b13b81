package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// entryOverhead approximates the bookkeeping bytes carried per entry on
// top of its key.
const entryOverhead = 96

// Availability is the cached availability outcome for one hotel and
// stay window.
type Availability struct {
	Available bool
	Price     float64
	Currency  string
}

// Config configures an availability cache.
type Config struct {
	// MaxSizeBytes is the cache's size budget.
	// Default: 100 MiB
	MaxSizeBytes int64

	// DefaultTTL is how long entries stay fresh when Set is used.
	// Default: 5m
	DefaultTTL time.Duration

	// CleanupInterval is how often expired entries are swept in the
	// background. Zero means the default; negative disables the sweeper
	// and expiry is enforced lazily on access.
	// Default: 1m
	CleanupInterval time.Duration

	// Shards is the number of lock shards. Rounded up to a power of
	// two.
	// Default: 16
	Shards int

	// Policy selects the eviction victim under size pressure.
	// Default: EvictLRU
	Policy EvictionPolicy

	// Loader fetches availability for Prefetch. Without it Prefetch is
	// a no-op.
	Loader Loader
}

type entry struct {
	key          Key
	value        Availability
	size         int64
	createdAt    time.Time
	expiresAt    time.Time
	lastAccessed time.Time
	accessCount  int64
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// AvailabilityCache is a sharded in-memory cache for hotel availability
// keyed by hotel and stay window. Entries expire by TTL; when the size
// budget is exceeded the configured eviction policy picks victims.
type AvailabilityCache struct {
	shards    []*shard
	shardMask uint64

	maxBytes   atomic.Int64
	defaultTTL atomic.Int64
	policy     atomic.Int32

	loader Loader
	flight flightGroup

	stats cacheStats

	stopJanitor chan struct{}
	closeOnce   sync.Once
}

type cacheStats struct {
	sizeBytes atomic.Int64
	items     atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	expired   atomic.Int64
	rejected  atomic.Int64
	lookups   atomic.Int64

	lookupMu      sync.Mutex
	avgLookupNs   int64
	lookupSamples int64
}

// Report is a point-in-time view of cache statistics.
type Report struct {
	SizeBytes     int64
	Items         int64
	Hits          int64
	Misses        int64
	Evictions     int64
	Expired       int64
	Rejected      int64
	TotalLookups  int64
	AvgLookupTime time.Duration
}

// New creates an availability cache.
func New(config Config) *AvailabilityCache {
	// Apply defaults
	if config.MaxSizeBytes <= 0 {
		config.MaxSizeBytes = 100 << 20
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.Shards <= 0 {
		config.Shards = 16
	}

	n := 1
	for n < config.Shards {
		n <<= 1
	}
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*entry)}
	}

	c := &AvailabilityCache{
		shards:    shards,
		shardMask: uint64(n - 1),
		loader:    config.Loader,
	}
	c.maxBytes.Store(config.MaxSizeBytes)
	c.defaultTTL.Store(int64(config.DefaultTTL))
	c.policy.Store(int32(config.Policy))

	if config.CleanupInterval > 0 {
		c.stopJanitor = make(chan struct{})
		go c.janitor(config.CleanupInterval)
	}

	return c
}

// Close stops the background sweeper. The cache remains usable.
func (c *AvailabilityCache) Close() {
	c.closeOnce.Do(func() {
		if c.stopJanitor != nil {
			close(c.stopJanitor)
		}
	})
}

func (c *AvailabilityCache) shardFor(key string) *shard {
	h := fnv.New64a()
	h.Write([]byte(key))
	return c.shards[h.Sum64()&c.shardMask]
}

// Get returns the cached availability for the key. Expired entries are
// removed on access and count as misses.
func (c *AvailabilityCache) Get(key Key) (Availability, bool) {
	start := time.Now()
	defer c.recordLookup(start)

	c.stats.lookups.Add(1)

	ks := key.String()
	s := c.shardFor(ks)

	s.mu.Lock()
	e, ok := s.entries[ks]
	if !ok {
		s.mu.Unlock()
		c.stats.misses.Add(1)
		return Availability{}, false
	}

	now := time.Now()
	if e.expired(now) {
		delete(s.entries, ks)
		s.mu.Unlock()
		c.stats.sizeBytes.Add(-e.size)
		c.stats.items.Add(-1)
		c.stats.expired.Add(1)
		c.stats.misses.Add(1)
		return Availability{}, false
	}

	e.accessCount++
	e.lastAccessed = now
	value := e.value
	s.mu.Unlock()

	c.stats.hits.Add(1)
	return value, true
}

// Set stores availability under the default TTL. It reports whether
// the entry was accepted.
func (c *AvailabilityCache) Set(key Key, value Availability) bool {
	return c.SetTTL(key, value, 0)
}

// SetTTL stores availability with an explicit TTL. A non-positive ttl
// uses the default. Entries that cannot fit even an empty cache are
// rejected.
func (c *AvailabilityCache) SetTTL(key Key, value Availability, ttl time.Duration) bool {
	if key.Validate() != nil {
		c.stats.rejected.Add(1)
		return false
	}
	if ttl <= 0 {
		ttl = time.Duration(c.defaultTTL.Load())
	}

	ks := key.String()
	size := int64(len(ks)) + entryOverhead
	if size > c.maxBytes.Load() {
		c.stats.rejected.Add(1)
		return false
	}

	c.ensureRoom(size)

	now := time.Now()
	e := &entry{
		key:          key,
		value:        value,
		size:         size,
		createdAt:    now,
		expiresAt:    now.Add(ttl),
		lastAccessed: now,
	}

	s := c.shardFor(ks)
	s.mu.Lock()
	if old, ok := s.entries[ks]; ok {
		c.stats.sizeBytes.Add(-old.size)
		c.stats.items.Add(-1)
	}
	s.entries[ks] = e
	s.mu.Unlock()

	c.stats.sizeBytes.Add(size)
	c.stats.items.Add(1)
	return true
}

// Invalidate removes entries matching the given fields. Empty fields
// match everything, so Invalidate("H1", "", "") drops every entry for
// hotel H1. It returns the number of entries removed.
func (c *AvailabilityCache) Invalidate(hotelID, checkIn, checkOut string) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for ks, e := range s.entries {
			if hotelID != "" && e.key.HotelID != hotelID {
				continue
			}
			if checkIn != "" && e.key.CheckIn != checkIn {
				continue
			}
			if checkOut != "" && e.key.CheckOut != checkOut {
				continue
			}
			delete(s.entries, ks)
			c.stats.sizeBytes.Add(-e.size)
			c.stats.items.Add(-1)
			removed++
		}
		s.mu.Unlock()
	}
	return removed
}

// SetEvictionPolicy swaps the eviction policy for subsequent evictions.
func (c *AvailabilityCache) SetEvictionPolicy(policy EvictionPolicy) {
	c.policy.Store(int32(policy))
}

// Policy returns the current eviction policy.
func (c *AvailabilityCache) Policy() EvictionPolicy {
	return EvictionPolicy(c.policy.Load())
}

// Resize swaps the size budget, evicting entries if the cache is now
// over it.
func (c *AvailabilityCache) Resize(maxSizeBytes int64) bool {
	if maxSizeBytes <= 0 {
		return false
	}
	c.maxBytes.Store(maxSizeBytes)
	c.ensureRoom(0)
	return true
}

// RemoveExpired sweeps every shard and removes expired entries,
// returning the number removed.
func (c *AvailabilityCache) RemoveExpired() int {
	now := time.Now()
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for ks, e := range s.entries {
			if e.expired(now) {
				delete(s.entries, ks)
				c.stats.sizeBytes.Add(-e.size)
				c.stats.items.Add(-1)
				c.stats.expired.Add(1)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Stats returns current cache statistics.
func (c *AvailabilityCache) Stats() Report {
	c.stats.lookupMu.Lock()
	avg := time.Duration(c.stats.avgLookupNs)
	c.stats.lookupMu.Unlock()

	return Report{
		SizeBytes:     c.stats.sizeBytes.Load(),
		Items:         c.stats.items.Load(),
		Hits:          c.stats.hits.Load(),
		Misses:        c.stats.misses.Load(),
		Evictions:     c.stats.evictions.Load(),
		Expired:       c.stats.expired.Load(),
		Rejected:      c.stats.rejected.Load(),
		TotalLookups:  c.stats.lookups.Load(),
		AvgLookupTime: avg,
	}
}

// ensureRoom evicts until the incoming size fits inside the budget.
func (c *AvailabilityCache) ensureRoom(incoming int64) {
	max := c.maxBytes.Load()
	for c.stats.sizeBytes.Load()+incoming > max {
		if !c.evictOne() {
			return
		}
	}
}

// evictOne removes the worst entry under the current policy across all
// shards. It returns false when the cache is empty.
func (c *AvailabilityCache) evictOne() bool {
	policy := c.Policy()

	var victim *entry
	var victimShard *shard
	for _, s := range c.shards {
		s.mu.Lock()
		for _, e := range s.entries {
			if policy.worseVictim(e, victim) {
				victim = e
				victimShard = s
			}
		}
		s.mu.Unlock()
	}
	if victim == nil {
		return false
	}

	ks := victim.key.String()
	victimShard.mu.Lock()
	current, ok := victimShard.entries[ks]
	if ok && current == victim {
		delete(victimShard.entries, ks)
	} else {
		ok = false
	}
	victimShard.mu.Unlock()

	if ok {
		c.stats.sizeBytes.Add(-victim.size)
		c.stats.items.Add(-1)
		c.stats.evictions.Add(1)
	}
	return true
}

func (c *AvailabilityCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopJanitor:
			return
		case <-ticker.C:
			c.RemoveExpired()
		}
	}
}

// recordLookup folds one lookup duration into the running average.
func (c *AvailabilityCache) recordLookup(start time.Time) {
	d := time.Since(start).Nanoseconds()

	c.stats.lookupMu.Lock()
	c.stats.lookupSamples++
	n := c.stats.lookupSamples
	c.stats.avgLookupNs += (d - c.stats.avgLookupNs) / n
	c.stats.lookupMu.Unlock()
}
