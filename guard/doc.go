// Package guard exposes route protection built on top of the authcore
// Manager: a pure decision function plus HTTP middleware adapters.
//
// # Guards
//
//   - [Guard] — middleware for an explicit [Requirement].
//   - [RequireAny] — public route, no check triggered.
//   - [RequireMember] — any authenticated account.
//   - [RequireAdmin] — admin accounts only.
//
// Decisions follow a fixed order: an unchecked session is pending, an
// anonymous one is sent to sign-in with the attempted path preserved, a
// non-admin on an admin route is sent to the member home, and an admin
// visiting a member-level route outside the admin area is steered to the
// admin dashboard. Steering never applies to routes that themselves require
// Admin, wherever they are mounted. The steering rule is product policy,
// not a security boundary; [Decide] never grants access through it.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Manager calls. It does NOT
// implement authentication itself — session state comes exclusively from
// [authcore.Manager.Session], and a pending decision triggers
// [authcore.Manager.CheckAuth] before re-deciding.
//
// # What this package must NOT do
//
//   - Call the content-platform API directly (the Manager owns that).
//   - Access Redis (the Manager's record store handles I/O).
//   - Derive roles from anything but the settled session copy.
package guard
