package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleNurse        = "nurse"
	RolePsychiatrist = "psychiatrist"
	RolePsychologist = "psychologist"
	RoleAdmin        = "admin"
)

// ClinicalRoles may read handover data.
var ClinicalRoles = []string{RoleNurse, RolePsychiatrist, RolePsychologist}

// RequireRole passes users holding at least one of roles. Admins always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, has := range RolesFromContext(c.Request().Context()) {
				if has == RoleAdmin {
					return next(c)
				}
				for _, required := range roles {
					if has == required {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
