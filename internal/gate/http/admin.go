package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
)

// requireAdmin guards the client registry endpoints with the static admin
// bearer token. When no token is configured the endpoints are disabled
// outright rather than left open.
func (r *Router) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.adminToken == "" {
			gatesdk.NewOAuth2Error(http.StatusForbidden, gatesdk.ErrorCodeAccessDenied,
				"administration is disabled").WriteError(w)
			return
		}

		auth := req.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			gatesdk.NewOAuth2Error(http.StatusUnauthorized, gatesdk.ErrorCodeAccessDenied,
				"missing bearer token").WriteError(w)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(r.adminToken)) != 1 {
			gatesdk.NewOAuth2Error(http.StatusUnauthorized, gatesdk.ErrorCodeAccessDenied,
				"invalid admin token").WriteError(w)
			return
		}

		next.ServeHTTP(w, req)
	})
}
