package auth

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RequireRoles returns a huma middleware that verifies the bearer token and
// admits the request only when the caller holds one of roles. The verified
// identity is available to the operation through IdentityFromContext.
func (h *AuthHandler) RequireRoles(api huma.API, roles ...string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := BearerToken(ctx.Header("Authorization"))
		if token == "" {
			huma.WriteErr(api, ctx, http.StatusForbidden, "No token provided")
			return
		}

		id, err := h.VerifyToken(token)
		if err != nil {
			huma.WriteErr(api, ctx, http.StatusForbidden, "Invalid token")
			return
		}

		if err := Authorize(id, roles...); err != nil {
			huma.WriteErr(api, ctx, http.StatusForbidden, "Access denied")
			return
		}

		next(huma.WithValue(ctx, contextKey{}, id))
	}
}
