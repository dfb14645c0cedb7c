// Package managed provides a request/caching engine for route-chain clients.
//
// An Engine creates Method handles; nothing is sent until Send or Await is
// called:
//
//	engine, err := managed.New(ctx, &managed.Config{BaseURL: "https://api.example.com"})
//	method := engine.Get("users/1", &hac.CallConfig{Name: "user", CacheFor: time.Minute})
//	resp, err := method.Send(ctx)
//
// GET responses are cached when the call config carries CacheFor or a Cache
// directive. The "memory" mode uses an in-process LRU cache; the "restore"
// mode additionally writes through to the configured persistent backend
// (Redis or NATS JetStream KV). Tagged entries are dropped with
// InvalidateTag.
//
// Concurrent sends of equivalent methods share one round-trip. Failed
// round-trips are retried with exponential backoff.
package managed
