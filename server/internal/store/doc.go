// Package store keeps recently served predictions in memory, keyed by
// request ID, so a client can look a result up again shortly after it was
// served. Entries expire after a TTL and the store is bounded in size.
package store
