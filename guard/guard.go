package guard

import (
	"context"
	"net"
	"net/http"

	authcore "github.com/communiversity/authcore"
)

type sessionContextKey struct{}

// SessionFromContext returns the settled session copy the guard attached to
// an allowed request.
func SessionFromContext(ctx context.Context) (authcore.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(authcore.Session)
	return sess, ok
}

// Guard returns middleware enforcing req for every request, using routes for
// redirect targets. A pending session triggers [authcore.Manager.CheckAuth]
// and the decision is retried once the check settles; redirects use
// 303 See Other so navigation history is replaced rather than appended.
func Guard(manager *authcore.Manager, req Requirement, routes Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			path := r.URL.Path
			snap := SnapshotOf(manager.Session())
			decision := Decide(snap, req, path, routes)

			if decision == Pending {
				ctx := requestContext(r)
				if err := manager.CheckAuth(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				snap = SnapshotOf(manager.Session())
				decision = Decide(snap, req, path, routes)
			}

			switch decision {
			case Allow:
				ctx := context.WithValue(r.Context(), sessionContextKey{}, manager.Session())
				next.ServeHTTP(w, r.WithContext(ctx))
			case RedirectToLogin, RedirectToDashboard:
				http.Redirect(w, r, Target(decision, snap, path, routes), http.StatusSeeOther)
			default:
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}
		})
	}
}

// RequireAny is [Guard] with the [Any] requirement: no check, no redirect.
func RequireAny(manager *authcore.Manager, routes Routes) func(http.Handler) http.Handler {
	return Guard(manager, Any, routes)
}

// RequireMember is [Guard] with the [Member] requirement.
func RequireMember(manager *authcore.Manager, routes Routes) func(http.Handler) http.Handler {
	return Guard(manager, Member, routes)
}

// RequireAdmin is [Guard] with the [Admin] requirement.
func RequireAdmin(manager *authcore.Manager, routes Routes) func(http.Handler) http.Handler {
	return Guard(manager, Admin, routes)
}

func requestContext(r *http.Request) context.Context {
	ctx := authcore.WithRequestPath(r.Context(), r.URL.Path)
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ctx = authcore.WithClientIP(ctx, host)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = authcore.WithUserAgent(ctx, ua)
	}
	return ctx
}
