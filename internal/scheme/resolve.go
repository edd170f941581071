package scheme

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CycleError reports a circular role reference. Chain holds the visitation
// path in order, ending with the role that closed the cycle.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	quoted := make([]string, len(e.Chain))
	for i, r := range e.Chain {
		quoted[i] = fmt.Sprintf("`%s`", r)
	}
	return "circular role references: " + strings.Join(quoted, " -> ")
}

// MissingRolesError aggregates every unassigned base role so scheme
// authors see the whole list at once instead of one failure per run.
type MissingRolesError struct {
	Roles []string
}

func (e *MissingRolesError) Error() string {
	return "missing required roles: " + strings.Join(e.Roles, ", ")
}

// UndefinedSwatchError reports a role assigned to a swatch that is not in
// the palette.
type UndefinedSwatchError struct {
	Role   string
	Swatch string
}

func (e *UndefinedSwatchError) Error() string {
	return fmt.Sprintf("role `%s` references non-existent swatch `%s`", e.Role, e.Swatch)
}

// visitSet is an insertion-ordered set threaded through one top-level
// resolution. It is never shared across roles or schemes.
type visitSet struct {
	order []string
	seen  map[string]struct{}
}

func newVisitSet() *visitSet {
	return &visitSet{seen: make(map[string]struct{})}
}

// add returns false when the role was already visited.
func (s *visitSet) add(role string) bool {
	if _, ok := s.seen[role]; ok {
		return false
	}
	s.seen[role] = struct{}{}
	s.order = append(s.order, role)
	return true
}

// fork copies the current path into a fresh set. Used when following the
// implicit variant->base fallback edge, which must stay cycle-safe without
// inheriting the terminated walk.
func (s *visitSet) fork() *visitSet {
	f := newVisitSet()
	for _, role := range s.order {
		f.add(role)
	}
	return f
}

// ResolveRoles flattens raw role assignments into terminal values, in
// vocabulary declaration order. It fails on the first cycle or undefined
// swatch, and before resolving anything it aggregates every unassigned
// base role into one error.
func ResolveRoles(v *Vocabulary, roles map[string]RoleValue, palette *Palette) (*orderedmap.OrderedMap[string, ResolvedRole], error) {
	var missing []string
	for _, name := range v.BaseNames() {
		if _, ok := roles[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingRolesError{Roles: missing}
	}

	resolved := orderedmap.New[string, ResolvedRole]()
	for _, name := range v.Names() {
		r, err := resolveRole(v, roles, palette, name, newVisitSet())
		if err != nil {
			return nil, err
		}
		resolved.Set(name, r)
	}
	return resolved, nil
}

func resolveRole(v *Vocabulary, roles map[string]RoleValue, palette *Palette, name string, visited *visitSet) (ResolvedRole, error) {
	if !visited.add(name) {
		chain := append(append([]string{}, visited.order...), name)
		return ResolvedRole{}, &CycleError{Chain: chain}
	}

	val, assigned := roles[name]
	switch {
	case assigned && val.Swatch != "":
		swatch, ok := palette.Get(val.Swatch)
		if !ok {
			return ResolvedRole{}, &UndefinedSwatchError{Role: name, Swatch: val.Swatch}
		}
		return ResolvedRole{Hex: swatch.Hex, Swatch: swatch.Name, ASCII: swatch.ASCII}, nil

	case assigned:
		return resolveRole(v, roles, palette, val.Role, visited)

	default:
		role := v.Role(v.Lookup(name))
		if role.IsBase() {
			return ResolvedRole{}, &MissingRolesError{Roles: []string{name}}
		}
		base := v.Role(role.Base)
		return resolveRole(v, roles, palette, base.Name, visited.fork())
	}
}
