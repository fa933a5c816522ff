// Package ws implements the live prediction feed for wearguard.
//
// Hub manages a set of connected WebSocket clients. Every served prediction
// is pushed to all of them as it happens, and a summary of the prediction
// history is broadcast on a fixed interval.
//
// New(store, interval) creates a Hub; store may be nil.
// Hub.Run(ctx) starts the summary ticker and blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection, sends the current summary
// immediately, then streams events.
// Hub.Publish pushes one prediction to every client.
//
// Message format sent to clients:
//
//	{"event": "prediction", "data": { /* same schema as GET /api/v1/predictions/{id} */ }}
//	{"event": "summary",    "data": {"generated_at": "...", "total": 3, "counts": {"Green": 2, "Yellow": 1, "Red": 0}}}
//
// The upgrader accepts all origins. Apply origin restrictions at the reverse
// proxy level. The feed is mounted at /ws/predictions by the API.
package ws
