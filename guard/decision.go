package guard

import (
	"net/url"
	"strings"

	authcore "github.com/communiversity/authcore"
	"github.com/communiversity/authcore/role"
)

// Requirement names the access level a route demands. Guards evaluate it
// against a settled session snapshot; [Any] short-circuits before any
// authentication check is triggered.
type Requirement int

const (
	// Any admits every visitor and never triggers an authentication check.
	Any Requirement = iota
	// Member requires an authenticated session of any role.
	Member
	// Admin requires an authenticated session with the admin role.
	Admin
)

// Decision is the outcome of evaluating one navigation. Exactly one
// decision comes out of [Decide]; only the redirect decisions carry a
// [Target] location.
type Decision int

const (
	// Pending means the session has not settled yet; run CheckAuth and
	// decide again.
	Pending Decision = iota
	// Allow admits the request.
	Allow
	// RedirectToLogin sends the visitor to sign-in, preserving the
	// attempted path.
	RedirectToLogin
	// RedirectToDashboard reroutes to the role-appropriate home.
	RedirectToDashboard
)

// Routes holds the navigation targets guard decisions redirect to. The zero
// value omits the return-path parameter and disables admin steering; most
// callers start from [DefaultRoutes] and override what differs.
type Routes struct {
	SignIn     string
	MemberHome string
	AdminHome  string
	// AdminPrefix marks the admin area; admins landing outside it are
	// steered to AdminHome.
	AdminPrefix   string
	RedirectParam string
}

// DefaultRoutes returns the stock route table.
func DefaultRoutes() Routes {
	return Routes{
		SignIn:        "/sign-in",
		MemberHome:    "/",
		AdminHome:     "/admin/dashboard",
		AdminPrefix:   "/admin",
		RedirectParam: "redirect",
	}
}

// Snapshot is the session view a decision is made from: a settled copy, never
// live Manager state.
type Snapshot struct {
	Checked       bool
	Authenticated bool
	Role          role.Role
}

// SnapshotOf derives a [Snapshot] from a session copy.
func SnapshotOf(sess authcore.Session) Snapshot {
	return Snapshot{
		Checked:       sess.Checked,
		Authenticated: sess.Authenticated,
		Role:          sess.Role,
	}
}

// Decide evaluates one navigation. Checks run in a fixed order: settledness,
// authentication, role, then admin steering. Steering applies only after
// every security check has passed, and only to member-level routes: a route
// that itself requires Admin renders wherever it is mounted.
func Decide(snap Snapshot, req Requirement, path string, routes Routes) Decision {
	if req == Any {
		return Allow
	}

	if !snap.Checked {
		return Pending
	}

	if !snap.Authenticated {
		return RedirectToLogin
	}

	if req == Admin && snap.Role != role.Admin {
		return RedirectToDashboard
	}

	if req == Member && snap.Role == role.Admin && !inAdminArea(path, routes) {
		return RedirectToDashboard
	}

	return Allow
}

// Target resolves a redirect decision to a concrete location. Allow and
// Pending have no target and return "".
func Target(decision Decision, snap Snapshot, path string, routes Routes) string {
	switch decision {
	case RedirectToLogin:
		target := routes.SignIn
		if path != "" && routes.RedirectParam != "" {
			target += "?" + routes.RedirectParam + "=" + url.QueryEscape(path)
		}
		return target
	case RedirectToDashboard:
		if snap.Role == role.Admin {
			return routes.AdminHome
		}
		return routes.MemberHome
	default:
		return ""
	}
}

func inAdminArea(path string, routes Routes) bool {
	prefix := routes.AdminPrefix
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
