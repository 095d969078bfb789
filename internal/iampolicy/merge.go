package iampolicy

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// AddMember adds member to the first binding of role, creating the
// binding if the role has none. Returns true when the policy actually
// changed, false when the member was already present.
func (p *Policy) AddMember(role, member string) bool {
	for i := range p.Bindings {
		if p.Bindings[i].Role != role {
			continue
		}
		if slices.Contains(p.Bindings[i].Members, member) {
			return false
		}
		p.Bindings[i].Members = append(p.Bindings[i].Members, member)
		return true
	}
	p.Bindings = append(p.Bindings, Binding{Role: role, Members: []string{member}})
	return true
}

// Grant adds member to every role, walking the roles in sorted order
// so repeated plans produce identical documents. Returns the roles the
// member was newly added to.
func (p *Policy) Grant(member string, roles []string) []string {
	var added []string
	for _, role := range slices.Sorted(slices.Values(roles)) {
		if p.AddMember(role, member) {
			added = append(added, role)
		}
	}
	return added
}

// ResolveRoles unions individually named roles with the expansion of
// each named bundle. The result is sorted and deduplicated. Blank role
// names are dropped; an unknown bundle is a validation error.
func ResolveRoles(roles, bundles []string, config map[string][]string) ([]string, error) {
	set := make(map[string]struct{})
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			set[role] = struct{}{}
		}
	}
	for _, bundle := range bundles {
		expansion, ok := config[bundle]
		if !ok {
			return nil, &reconcile.ValidationError{
				Field:   "bundle",
				Message: fmt.Sprintf("unknown role bundle %q", bundle),
			}
		}
		for _, role := range expansion {
			set[role] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil, nil
	}
	return slices.Sorted(maps.Keys(set)), nil
}
