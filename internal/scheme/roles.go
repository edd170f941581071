package scheme

import (
	"fmt"
	"strings"
)

// roleVariantSeparator splits a variant role from its base: `bg_alt` falls
// back to `bg` when unassigned.
const roleVariantSeparator = "_"

// defaultRoleNames is the fixed role vocabulary, in declaration order.
// Resolution iterates this order so resolved role maps are deterministic
// across schemes.
var defaultRoleNames = []string{
	"bg",
	"bg_alt",
	"fg",
	"fg_alt",
	"toolbar",
	"toolbar_popup",
	"toolbar_alt",
	"select",
	"select_2nd",
	"select_alt",
	"accent",
	"accent_2nd",
	"accent_separator",
	"accent_popup",
	"accent_linenum",
	"inactive",
	"focus",
	"guide",
	"guide_inlay",
	"guide_linenum",
	"guide_ruler",
	"guide_whitespace",
	"match",
	"error",
	"warning",
	"info",
	"hint",
	"debug.active",
	"debug.breakpoint",
	"debug.frameline",
	"mode.normal",
	"mode.normal_2nd",
	"mode.insert",
	"mode.insert_2nd",
	"mode.select",
	"mode.select_2nd",
	"syntax.variable",
	"syntax.variable_builtin",
	"syntax.variable_parameter",
	"syntax.variable_member",
	"syntax.keyword",
	"syntax.keyword_operator",
	"syntax.keyword_function",
	"syntax.keyword_conditional",
	"syntax.keyword_repeat",
	"syntax.keyword_import",
	"syntax.keyword_return",
	"syntax.keyword_exception",
	"syntax.keyword_directive",
	"syntax.keyword_storage",
	"syntax.type",
	"syntax.type_builtin",
	"syntax.type_variant",
	"syntax.function",
	"syntax.function_builtin",
	"syntax.function_method",
	"syntax.function_macro",
	"syntax.constant",
	"syntax.constant_builtin",
	"syntax.constant_boolean",
	"syntax.constant_number",
	"syntax.constant_character",
	"syntax.label",
	"syntax.constructor",
	"syntax.string",
	"syntax.attribute",
	"syntax.namespace",
	"syntax.tag",
	"syntax.tag_builtin",
	"syntax.comment",
	"syntax.comment_doc",
	"syntax.operator",
	"syntax.punctuation",
	"syntax.punctuation_rainbow1",
	"syntax.punctuation_rainbow2",
	"syntax.punctuation_rainbow3",
	"syntax.punctuation_rainbow4",
	"syntax.punctuation_rainbow5",
	"syntax.punctuation_rainbow6",
	"syntax.special",
	"syntax.special_function",
	"syntax.special_character",
	"syntax.special_string",
	"syntax.special_punctuation",
	"diff.plus",
	"diff.minus",
	"diff.delta",
	"diff.delta_moved",
	"diff.delta_conflict",
	"markup.heading",
	"markup.heading_2nd",
	"markup.heading_3rd",
	"markup.heading_4th",
	"markup.heading_5th",
	"markup.heading_6th",
	"markup.list",
	"markup.list_numbered",
	"markup.list_checked",
	"markup.list_unchecked",
	"markup.link",
	"markup.link_text",
	"markup.bold",
	"markup.italic",
	"markup.strikethrough",
	"markup.quote",
	"markup.raw",
	"ansi.black",
	"ansi.black_bright",
	"ansi.red",
	"ansi.red_bright",
	"ansi.green",
	"ansi.green_bright",
	"ansi.yellow",
	"ansi.yellow_bright",
	"ansi.blue",
	"ansi.blue_bright",
	"ansi.magenta",
	"ansi.magenta_bright",
	"ansi.cyan",
	"ansi.cyan_bright",
	"ansi.white",
	"ansi.white_bright",
}

// Role is one entry of a vocabulary with its classification precomputed:
// group/key split and, for variant roles, the index of the base role it
// falls back to.
type Role struct {
	Name  string
	Group string // empty for ungrouped roles
	Key   string // name without the group prefix
	Base  int    // index of the fallback base role; -1 for base roles
}

// IsBase reports whether the role is required (has no fallback).
func (r Role) IsBase() bool { return r.Base < 0 }

// Vocabulary is a closed, ordered set of role names. Base/group links are
// built once at construction so classification never re-splits strings.
type Vocabulary struct {
	roles []Role
	index map[string]int
}

// NewVocabulary builds a vocabulary from an ordered name list. Every
// variant name (one with a `_suffix`) must strip to a name present in the
// list; that is a defect in the vocabulary itself, not in any scheme.
func NewVocabulary(names []string) (*Vocabulary, error) {
	v := &Vocabulary{
		roles: make([]Role, 0, len(names)),
		index: make(map[string]int, len(names)),
	}

	for i, name := range names {
		if _, dup := v.index[name]; dup {
			return nil, fmt.Errorf("duplicate role `%s` in vocabulary", name)
		}
		group, key := "", name
		if g, k, ok := strings.Cut(name, "."); ok {
			group, key = g, k
		}
		v.roles = append(v.roles, Role{Name: name, Group: group, Key: key, Base: -1})
		v.index[name] = i
	}

	for i := range v.roles {
		name := v.roles[i].Name
		base, _, found := cutLast(name, roleVariantSeparator)
		if !found {
			continue
		}
		baseIdx, ok := v.index[base]
		if !ok {
			return nil, fmt.Errorf("variant role `%s` has no base `%s` in vocabulary", name, base)
		}
		v.roles[i].Base = baseIdx
	}

	return v, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// Lookup returns the index of a role name, or -1 when the name is not part
// of the vocabulary.
func (v *Vocabulary) Lookup(name string) int {
	if i, ok := v.index[name]; ok {
		return i
	}
	return -1
}

// Role returns the role at index i.
func (v *Vocabulary) Role(i int) Role { return v.roles[i] }

// Len returns the number of roles.
func (v *Vocabulary) Len() int { return len(v.roles) }

// Names returns all role names in declaration order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.roles))
	for i, r := range v.roles {
		out[i] = r.Name
	}
	return out
}

// BaseNames returns the names of all base (required) roles in order.
func (v *Vocabulary) BaseNames() []string {
	var out []string
	for _, r := range v.roles {
		if r.IsBase() {
			out = append(out, r.Name)
		}
	}
	return out
}

// DefaultVocabulary is the vocabulary all schemes load against.
var DefaultVocabulary = mustVocabulary(defaultRoleNames)

func mustVocabulary(names []string) *Vocabulary {
	v, err := NewVocabulary(names)
	if err != nil {
		panic(err)
	}
	return v
}

// RoleValue is one raw role assignment: either a direct swatch reference
// (`$name` in scheme files) or an indirect reference to another role.
type RoleValue struct {
	Swatch string // set for `$swatch` assignments
	Role   string // set for role indirections
}

// ParseRoleValue parses the string form used in scheme files.
func ParseRoleValue(v *Vocabulary, val string) (RoleValue, error) {
	if swatch, ok := strings.CutPrefix(val, "$"); ok {
		name, err := normalizeName(swatch, "swatch")
		if err != nil {
			return RoleValue{}, fmt.Errorf("invalid swatch reference `$%s`: %w", swatch, err)
		}
		return RoleValue{Swatch: name}, nil
	}
	if v.Lookup(val) < 0 {
		return RoleValue{}, fmt.Errorf("undefined role `%s`", val)
	}
	return RoleValue{Role: val}, nil
}

// ResolvedRole is the terminal value of a role after all indirection has
// been followed: a concrete color plus the swatch it came from.
type ResolvedRole struct {
	Hex    string `json:"hex"`
	Swatch string `json:"swatch"`
	ASCII  string `json:"ascii"`
}
