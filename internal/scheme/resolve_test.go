package scheme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVocab builds a small vocabulary so tests don't need to assign all
// base roles of the real one.
func testVocab(t *testing.T, names ...string) *Vocabulary {
	t.Helper()
	v, err := NewVocabulary(names)
	require.NoError(t, err)
	return v
}

func testPalette(t *testing.T, colors map[string]string) *Palette {
	t.Helper()
	p := NewPalette()
	for name, hex := range colors {
		sw, err := NewSwatch(name, hex, "")
		require.NoError(t, err)
		p.Add(sw)
	}
	require.NoError(t, p.Validate())
	return p
}

func TestResolveRoles_DirectSwatch(t *testing.T) {
	v := testVocab(t, "bg")
	p := testPalette(t, map[string]string{"black": "#000000"})

	resolved, err := ResolveRoles(v, map[string]RoleValue{"bg": {Swatch: "black"}}, p)
	require.NoError(t, err)

	rr, ok := resolved.Get("bg")
	require.True(t, ok)
	assert.Equal(t, "#000000", rr.Hex)
	assert.Equal(t, "black", rr.Swatch)
	assert.Equal(t, "black", rr.ASCII)
}

func TestResolveRoles_Indirection(t *testing.T) {
	v := testVocab(t, "bg", "fg")
	p := testPalette(t, map[string]string{"white": "#ffffff"})

	resolved, err := ResolveRoles(v, map[string]RoleValue{
		"bg": {Swatch: "white"},
		"fg": {Role: "bg"},
	}, p)
	require.NoError(t, err)

	fg, _ := resolved.Get("fg")
	bg, _ := resolved.Get("bg")
	assert.Equal(t, bg, fg)
}

func TestResolveRoles_VariantFallsBackToBase(t *testing.T) {
	v := testVocab(t, "bg", "bg_alt", "bg_alt_deep")
	p := testPalette(t, map[string]string{"night": "#101010"})

	resolved, err := ResolveRoles(v, map[string]RoleValue{"bg": {Swatch: "night"}}, p)
	require.NoError(t, err)

	bg, _ := resolved.Get("bg")
	alt, _ := resolved.Get("bg_alt")
	deep, _ := resolved.Get("bg_alt_deep")
	assert.Equal(t, bg, alt)
	assert.Equal(t, bg, deep)
}

func TestResolveRoles_MissingBasesAggregated(t *testing.T) {
	v := testVocab(t, "bg", "fg", "accent", "accent_alt")
	p := testPalette(t, map[string]string{"black": "#000000"})

	_, err := ResolveRoles(v, map[string]RoleValue{"bg": {Swatch: "black"}}, p)
	require.Error(t, err)

	var missing *MissingRolesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"fg", "accent"}, missing.Roles)
	assert.Equal(t, "missing required roles: fg, accent", err.Error())
}

func TestResolveRoles_CycleReportsChain(t *testing.T) {
	v := testVocab(t, "bg", "fg")
	p := testPalette(t, map[string]string{"black": "#000000"})

	_, err := ResolveRoles(v, map[string]RoleValue{
		"bg": {Role: "fg"},
		"fg": {Role: "bg"},
	}, p)
	require.Error(t, err)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Len(t, cycle.Chain, 3)
	assert.Equal(t, cycle.Chain[0], cycle.Chain[2])
	assert.Contains(t, err.Error(), "circular role references:")
	assert.Contains(t, err.Error(), " -> ")
}

func TestResolveRoles_SelfCycle(t *testing.T) {
	v := testVocab(t, "bg")
	p := testPalette(t, map[string]string{"black": "#000000"})

	_, err := ResolveRoles(v, map[string]RoleValue{"bg": {Role: "bg"}}, p)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"bg", "bg"}, cycle.Chain)
}

// The variant fallback edge forks the visited set. A diamond where a
// variant is explicitly routed through a role that was already part of
// the walk must not be misreported as a cycle.
func TestResolveRoles_FallbackForkIsNotACycle(t *testing.T) {
	v := testVocab(t, "bg", "fg", "fg_alt")
	p := testPalette(t, map[string]string{"black": "#000000", "white": "#ffffff"})

	resolved, err := ResolveRoles(v, map[string]RoleValue{
		"bg": {Role: "fg_alt"},
		"fg": {Swatch: "white"},
	}, p)
	require.NoError(t, err)

	bg, _ := resolved.Get("bg")
	assert.Equal(t, "#ffffff", bg.Hex)
}

func TestResolveRoles_UndefinedSwatch(t *testing.T) {
	v := testVocab(t, "bg")
	p := testPalette(t, map[string]string{"black": "#000000"})

	_, err := ResolveRoles(v, map[string]RoleValue{"bg": {Swatch: "missing"}}, p)
	var undef *UndefinedSwatchError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "bg", undef.Role)
	assert.Equal(t, "missing", undef.Swatch)
	assert.Equal(t, "role `bg` references non-existent swatch `missing`", err.Error())
}

func TestResolveRoles_Deterministic(t *testing.T) {
	v := testVocab(t, "bg", "fg", "fg_alt", "accent")
	p := testPalette(t, map[string]string{"black": "#000000", "white": "#ffffff"})
	roles := map[string]RoleValue{
		"bg":     {Swatch: "black"},
		"fg":     {Swatch: "white"},
		"accent": {Role: "fg"},
	}

	first, err := ResolveRoles(v, roles, p)
	require.NoError(t, err)
	second, err := ResolveRoles(v, roles, p)
	require.NoError(t, err)

	var firstOrder, secondOrder []string
	for pair := first.Oldest(); pair != nil; pair = pair.Next() {
		firstOrder = append(firstOrder, pair.Key)
	}
	for pair := second.Oldest(); pair != nil; pair = pair.Next() {
		secondOrder = append(secondOrder, pair.Key)
	}
	assert.Equal(t, firstOrder, secondOrder)
	assert.Equal(t, v.Names(), firstOrder)
}

func TestDefaultVocabulary(t *testing.T) {
	assert.Greater(t, DefaultVocabulary.Len(), 100)

	// Every variant strips to its base name, minus the last `_segment`.
	for _, name := range DefaultVocabulary.Names() {
		r := DefaultVocabulary.Role(DefaultVocabulary.Lookup(name))
		if !r.IsBase() {
			base := DefaultVocabulary.Role(r.Base)
			assert.True(t, strings.HasPrefix(name, base.Name+"_"), "variant %s base %s", name, base.Name)
		}
	}

	// Grouped roles split on the first dot only.
	r := DefaultVocabulary.Role(DefaultVocabulary.Lookup("syntax.keyword_operator"))
	assert.Equal(t, "syntax", r.Group)
	assert.Equal(t, "keyword_operator", r.Key)
	base := DefaultVocabulary.Role(r.Base)
	assert.Equal(t, "syntax.keyword", base.Name)
}

func TestParseRoleValue(t *testing.T) {
	v := testVocab(t, "bg", "fg")

	rv, err := ParseRoleValue(v, "$Black")
	require.NoError(t, err)
	assert.Equal(t, "Black", rv.Swatch)

	rv, err = ParseRoleValue(v, "bg")
	require.NoError(t, err)
	assert.Equal(t, "bg", rv.Role)

	_, err = ParseRoleValue(v, "nonsense")
	assert.ErrorContains(t, err, "undefined role `nonsense`")
}
