package auth

import (
	"log/slog"
	"net/http"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/transport"
)

// Gate authorizes requests by role and, optionally, by permission set.
type Gate struct {
	*transport.BaseHandler
	tokens      *TokenService
	permissions PermissionLoader
}

func NewGate(tokens *TokenService, permissions PermissionLoader, logger *slog.Logger) *Gate {
	return &Gate{
		BaseHandler: transport.NewBaseHandler(logger),
		tokens:      tokens,
		permissions: permissions,
	}
}

// Authorize resolves the caller and checks role membership, then (when
// required is non-nil) that every required permission is granted. Missing or
// invalid credentials are reported as Forbidden. Permissions are read from the
// store on every call.
func (g *Gate) Authorize(r *http.Request, allowed RoleSet, required PermissionSet) (*Claims, error) {
	claims, err := g.tokens.ExtractFromRequest(r)
	if err != nil {
		g.Logger.WarnContext(r.Context(), "authorization denied: no valid credentials", "path", r.URL.Path, "error", err)
		return nil, internal.NewForbiddenError("Not authorized", internal.ErrCodeInvalidToken).WithCause(err)
	}

	if !allowed.Contains(claims.Role) {
		g.Logger.WarnContext(r.Context(), "authorization denied: role not allowed",
			"user_id", claims.UserID,
			"role", claims.Role,
			"path", r.URL.Path)
		return nil, internal.ErrRoleNotAllowed
	}

	if required == nil {
		return claims, nil
	}

	names, err := g.permissions.LoadGrantedPermissionNames(r.Context(), claims.UserID)
	if err != nil {
		g.Logger.ErrorContext(r.Context(), "authorization check failed", "user_id", claims.UserID, "error", err)
		return nil, internal.NewInternalError("failed to load permissions", err)
	}

	granted := Permissions(names...)
	if !IsSubset(required, granted) {
		missing := Missing(required, granted)
		g.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
			"user_id", claims.UserID,
			"missing_permissions", missing)
		return nil, internal.ErrMissingPermissions.WithDetails(map[string][]string{"missing": missing})
	}

	return claims, nil
}

// Require wraps Authorize as middleware and puts the caller's principal in
// the request context. Pass no permissions to skip the permission check.
func (g *Gate) Require(allowed RoleSet, permissions ...string) func(http.Handler) http.Handler {
	var required PermissionSet
	if len(permissions) > 0 {
		required = Permissions(permissions...)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.Authorize(r, allowed, required)
			if err != nil {
				g.WriteAppError(w, r, err)
				return
			}
			ctx := internal.ContextWithPrincipal(r.Context(), internal.Principal{
				UserID: claims.UserID,
				Role:   string(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
