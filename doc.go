// Package authcore is the session and authorization core of the Communiversity
// digital-library gateway. It owns the client-side Session record (who is
// logged in), restores it from durable Redis storage across process restarts,
// resolves a coarse role (member or admin), and feeds the HTTP route guards in
// the guard sub-package. Credential verification is delegated to the external
// content-platform API behind the [APIClient] interface.
//
// The package is designed for concurrent gateway workloads: Manager methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Manager], [Builder], [Config],
// and value types (Session, Identity, MetricsSnapshot, etc.). All internal
// coordination — record encoding, audit dispatch, metric storage — lives under
// internal/ and sibling packages and is never exported from here.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encoding, or API wire formats in its public API.
//   - Persist access tokens or any other secret to durable storage.
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Concurrency contract
//
// CheckAuth is single-flight: concurrent callers attach to the in-flight
// restore instead of issuing duplicate reads. Session() never blocks. Login and
// Logout are last-write-wins; the Manager does not serialize user-initiated
// actions beyond that.
package authcore
