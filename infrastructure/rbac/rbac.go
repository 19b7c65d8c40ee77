package rbac

import (
	"strings"

	"queueboard/infrastructure/cache"
)

const (
	RoleOfficer    = "officer"
	RoleSupervisor = "supervisor"
)

// Screen permission codes.
const (
	CodeQueueView     = "OFFICER_QUEUE_VIEW"
	CodeQueueUpdate   = "OFFICER_QUEUE_UPDATE"
	CodeDashboardView = "OFFICER_DASHBOARD_VIEW"
	CodeQueueExport   = "OFFICER_QUEUE_EXPORT"
)

// Roles lists every role an officer account may hold.
var Roles = []string{RoleOfficer, RoleSupervisor}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Expand returns the roles whose permissions a holder of role receives.
// Supervisors can do everything officers can.
func Expand(role string) []string {
	if role == RoleSupervisor {
		return []string{RoleOfficer, RoleSupervisor}
	}
	return []string{role}
}

// Rbac registers route permissions alongside route definitions.
type Rbac struct {
	cache *cache.RbacRolesCache
}

func New(c *cache.RbacRolesCache) *Rbac {
	return &Rbac{cache: c}
}

func (r *Rbac) Add(role, code, method, path string) {
	if r == nil || r.cache == nil {
		return
	}
	r.cache.Add(role, cache.Resource{
		Role:   role,
		Code:   code,
		Method: strings.ToUpper(method),
		Path:   path,
	})
}

// Allowed reports whether any of roles may call method on urlPath.
func (r *Rbac) Allowed(roles []string, urlPath, method string) bool {
	if r == nil || r.cache == nil || len(roles) == 0 {
		return false
	}
	return ValidateResourceAccess(r.cache.ResourcesFor(roles), urlPath, method)
}

func ValidateResourceAccess(resources []cache.Resource, urlPath, method string) bool {
	method = strings.ToUpper(method)
	for _, res := range resources {
		if res.Method == method && matchPath(res.Path, urlPath) {
			return true
		}
	}
	return false
}

// matchPath supports "*" as a single segment ("/officer/queue/*/status") and
// as a trailing catch-all ("/officer/*").
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	patternSeg := strings.Split(strings.Trim(pattern, "/"), "/")
	pathSeg := strings.Split(strings.Trim(path, "/"), "/")

	last := len(patternSeg) - 1
	for i, seg := range patternSeg {
		if i == last && seg == "*" && len(pathSeg) > len(patternSeg) {
			return true
		}
		if i >= len(pathSeg) {
			return false
		}
		if seg != "*" && seg != pathSeg[i] {
			return false
		}
	}
	return len(pathSeg) == len(patternSeg)
}
