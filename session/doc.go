// Package session persists the durable Communiversity session record — the
// blob that lets a gateway restore "who is logged in" across process
// restarts. The record deliberately carries no secrets: user ID, display
// name, email, role, and timestamps only. Access tokens never touch this
// package.
//
// Records are stored in Redis under a stable per-profile key using a
// versioned binary encoding. Decoding accepts all historical schema versions
// and the store transparently rewrites old records at the current version on
// read.
package session
