// Package registry provides lnsms.Store implementations for pending SMS payment requests.
//
// # Overview
//
// The registry owns every PaymentRequest between charge creation and delivery.
// Two backends are provided:
//   - MemoryStore: process-local; state is lost on restart
//   - RedisStore: shared across processes, with optional key TTL
//
// # Per-Charge Locking
//
// Both stores implement Lock, which the fulfillment workflow holds around the
// read-check-deliver-write sequence. MemoryStore uses in-process keyed locks;
// RedisStore uses a token-guarded SET NX lock so that several server
// instances can share one registry.
//
// # Usage
//
//	store := registry.NewMemoryStore()
//
//	// or, for a shared backend
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := registry.NewRedisStore(client, registry.WithKeyPrefix("lnsms"))
//
//	svc := lnsms.NewService(store, backends, settings)
package registry
