// Package token inspects the bearer token the content-platform API returns
// on login. The token is held in memory only — it is never written to the
// durable session record — and the API remains authoritative for its
// validity. Inspection serves two purposes: recovering identity hints and
// feeding the token expiry into the TTL restore policy.
//
// When a verification key is configured, signatures are checked (HS256 or
// Ed25519). Deployments that treat the token as fully opaque can enable
// AllowUnverified and claims are read without signature verification.
package token
