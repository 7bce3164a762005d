package authz

import (
	"strings"

	"energyshare/internal/models"
)

const RoleAdmin = "ADMIN"

// IsAdmin is the single admin predicate: either the is_admin flag or the
// ADMIN role grants the back office.
func IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || u.UserRole == RoleAdmin
}

// HomeFor is where a freshly signed in user lands.
func HomeFor(u *models.User) string {
	if IsAdmin(u) {
		return "/admin/dashboard"
	}
	return "/dashboard"
}

// InArea reports whether path lies in the part of the site u's role lands
// in: the back office for admins, everything else for other users.
func InArea(u *models.User, path string) bool {
	p, _, _ := strings.Cut(path, "?")
	back := p == "/admin" || strings.HasPrefix(p, "/admin/")
	return back == IsAdmin(u)
}
