// Package role derives the coarse authorization role of a Communiversity
// session from account data. The system historically carried two divergent
// role sources — a locally issued role string and identity-provider public
// metadata — and this package is the single place that reconciles them.
//
// Resolution is pure: no I/O, no network calls, no clock. Absent, malformed,
// or unknown role data always resolves to [Member]; elevation to [Admin] must
// be explicit.
package role
