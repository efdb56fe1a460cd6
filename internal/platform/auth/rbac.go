package auth

import (
	"fmt"
	"net/http"
)

const (
	RoleAdmin     = "admin"
	RolePurchaser = "purchaser"
	RoleViewer    = "viewer"
)

// MethodRoleAuthorizer grants reads to any known role and writes (product
// builds, quotes, purchases) to purchasers and admins.
func MethodRoleAuthorizer() AuthorizeFunc {
	return func(r *http.Request, identity Identity) error {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			if identity.HasRole(RoleAdmin) || identity.HasRole(RolePurchaser) || identity.HasRole(RoleViewer) {
				return nil
			}
		case http.MethodPost:
			if identity.HasRole(RoleAdmin) || identity.HasRole(RolePurchaser) {
				return nil
			}
		}
		return fmt.Errorf("%w: %s %s", ErrForbidden, r.Method, r.URL.Path)
	}
}
