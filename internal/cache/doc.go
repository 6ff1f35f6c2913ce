// Package cache keeps fetched article payloads and audio bytes close at
// hand: an in-memory LRU tier (L1) in front of a zstd-compressed disk tier
// (L2). Both tiers are disposable; losing either only costs a refetch.
package cache
