package cache

import (
	"sort"
	"sync"
)

// Resource is one permitted route for a role.
type Resource struct {
	Code   string
	Path   string
	Method string
	Role   string
}

// RbacRolesCache maps roles to the routes they may call.
type RbacRolesCache struct {
	mu        sync.RWMutex
	resources map[string][]Resource
	codes     map[string]struct{}
}

func NewRbacRolesCache() *RbacRolesCache {
	return &RbacRolesCache{
		resources: make(map[string][]Resource),
		codes:     make(map[string]struct{}),
	}
}

func (c *RbacRolesCache) Add(role string, r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[role] = append(c.resources[role], r)
	c.codes[r.Code] = struct{}{}
}

func (c *RbacRolesCache) ResourcesFor(roles []string) []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Resource, 0)
	for _, role := range roles {
		out = append(out, c.resources[role]...)
	}
	return out
}

// ScreenPermissions is the set of resource codes granted to roles, used to
// decide which navigation links to show.
func (c *RbacRolesCache) ScreenPermissions(roles []string) map[string]int {
	perms := make(map[string]int)
	for _, r := range c.ResourcesFor(roles) {
		perms[r.Code] = 1
	}
	return perms
}

func (c *RbacRolesCache) Codes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.codes))
	for name := range c.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
