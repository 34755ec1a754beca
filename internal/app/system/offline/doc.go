// Package offline implements the cache-first offline layer used by the
// LaundryPOS terminals.
//
// A Worker owns one versioned cache bucket. It is installed by fetching a
// fixed AssetManifest into the bucket, activated by deleting every bucket
// that does not carry the current version name, and from then on answers
// each intercepted request from the bucket when an exact URL match exists,
// forwarding everything else to the network untouched.
//
// Lifecycle:
//
//	uninstalled → installing → installed → activating → active
//
// A worker that fails to install or activate, or that is superseded by a
// newer registration, ends in the redundant state.
//
// Buckets live behind the Storage interface so the same worker runs on the
// in-memory store (MemoryStorage) or on MongoDB (store/cachebuckets).
package offline
