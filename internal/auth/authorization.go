package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/transport"
)

// Authorization wraps the permission guard as chi-compatible middleware.
// It runs after AuthMiddleware, so by the time Require fires the identity
// is either fully loaded in context or the request was already rejected.
type Authorization struct {
	*transport.BaseHandler
	guard *authz.Guard
}

func NewAuthorization(guard *authz.Guard, lg *slog.Logger) *Authorization {
	return &Authorization{
		BaseHandler: transport.NewBaseHandler(lg),
		guard:       guard,
	}
}

// Require gates the wrapped handlers behind a permission requirement.
// Browser navigations get a redirect to the forbidden page with the
// original location preserved; API clients get a 403 with the standard
// error body.
func (a *Authorization) Require(req authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				a.WriteError(w, http.StatusUnauthorized, "missing authentication")
				return
			}

			decision := a.guard.Check(user.Actor(), true, req, r.URL.RequestURI())
			switch decision.Verdict {
			case authz.VerdictAllow:
				next.ServeHTTP(w, r)
			case authz.VerdictDeny:
				a.Logger.Warn("access denied",
					"user_id", user.ID,
					"role", user.Role,
					"path", r.URL.Path,
				)
				if wantsHTML(r) {
					http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
					return
				}
				status, body := internal.ErrUnauthorizedAccess.ToHTTPResponse()
				a.WriteJSON(w, status, body)
			default:
				// Identity is always loaded here, so pending cannot occur.
				a.WriteError(w, http.StatusInternalServerError, "authorization state unresolved")
			}
		})
	}
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}
