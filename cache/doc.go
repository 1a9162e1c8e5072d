// Package cache provides expiring key-value stores for response caching.
//
// Every backend satisfies the Cache interface: a synchronous get/set/delete
// contract with bulk variants, a TTL Policy and lazy expiry on read.
// FileCache keeps one file per key (<dir>/<key>.cache), LevelDBCache keeps
// entries in a single LevelDB database, and MemoryCache keeps them in
// process. Keyer derives fixed-length keys from request parameter values.
//
// Entries record an explicit expiry instant alongside the value; file
// timestamps play no part in expiry.
package cache
