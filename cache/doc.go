// Package cache provides a sharded in-memory cache for hotel
// availability data.
//
// Entries are keyed by hotel and stay window, expire by TTL, and are
// evicted under a size budget by an LRU, LFU, or TTL policy. Prefetch
// warms the cache through a loader with duplicate fetch suppression.
package cache
