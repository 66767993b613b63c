// Package ratelimit implements a per-client fixed-window request counter.
//
// A client may send Limit requests per Window. The first request from a client opens
// a window; every request increments the counter; once the window has elapsed the
// counter starts again from zero.
//
// Counters live in a Store. MemoryStore keeps them in a bounded LRU map and is suited
// to a single instance; RedisStore shares them between instances.
package ratelimit
