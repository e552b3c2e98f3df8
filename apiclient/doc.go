// Package apiclient implements the content-platform API boundary of the
// session core. [HTTP] talks JSON over REST to the real platform; [Mock] is
// an in-memory fixture used by tests, the demo gateway, and the load probe.
//
// Both satisfy [authcore.APIClient]. Implementations are responsible for
// translating transport and HTTP status failures into the authcore error
// sentinels so the Manager never sees a raw transport error.
package apiclient
