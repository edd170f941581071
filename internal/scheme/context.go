package scheme

import (
	"strings"

	"github.com/tessera-themes/tessera/internal/bug"
)

// ColorFormat selects what a color value prints as when used bare in a
// template (`{{.bg}}` as opposed to `{{.bg.hex}}`).
type ColorFormat int

const (
	ColorHex ColorFormat = iota
	ColorName
)

// TextFormat selects between display names and their ascii fallbacks.
type TextFormat int

const (
	TextUnicode TextFormat = iota
	TextASCII
)

// RenderConfig is the rendering mode a context is built for. It is fixed
// per template (set by directives) and baked into every color value at
// construction, so templates never carry mode logic themselves.
type RenderConfig struct {
	Colors ColorFormat
	Text   TextFormat
}

// Special carries the upstream link fields exposed to templates under
// `special`. Zero value means no upstream information was detected.
type Special struct {
	UpstreamFile string
	UpstreamRepo string
}

// reprKey holds the precomputed bare-rendering string of a Color. Kept
// inside the map under a name no template would index.
const reprKey = "_repr"

// setKey is the sentinel listing explicitly assigned roles. Rendering
// refuses to proceed when a context lacks it, since that means the
// context was not built here.
const setKey = "_set"

// Color is one color value visible to templates, either a palette swatch
// or a resolved role. Templates index it like a map (`{{.bg.hex}}`) and
// print it bare through String.
type Color map[string]any

func (c Color) String() string {
	s, _ := c[reprKey].(string)
	return s
}

func colorCommon(hex string, r, g, b uint8) Color {
	return Color{
		"hex": hex,
		"r":   int(r),
		"g":   int(g),
		"b":   int(b),
		"rf":  float64(r) / 255.0,
		"gf":  float64(g) / 255.0,
		"bf":  float64(b) / 255.0,
	}
}

func (cfg RenderConfig) repr(hex, name, ascii string) string {
	if cfg.Colors == ColorHex {
		return hex
	}
	if cfg.Text == TextASCII {
		return ascii
	}
	return name
}

// swatchColor builds the template value for a palette swatch, including
// the names of every role that resolved to it.
func swatchColor(s Swatch, roles []string, cfg RenderConfig) Color {
	r, g, b := s.RGB()
	c := colorCommon(s.Hex, r, g, b)
	c["name"] = s.Name
	c["ascii"] = s.ASCII
	if roles == nil {
		roles = []string{}
	}
	c["roles"] = roles
	c[reprKey] = cfg.repr(s.Hex, s.Name, s.ASCII)
	return c
}

// roleColor builds the template value for a resolved role. `name` and
// `ascii` alias the swatch fields so role and swatch values can be used
// interchangeably in templates.
func roleColor(rr ResolvedRole, r, g, b uint8, cfg RenderConfig) Color {
	c := colorCommon(rr.Hex, r, g, b)
	c["swatch"] = rr.Swatch
	c["swatch_ascii"] = rr.ASCII
	c["name"] = rr.Swatch
	c["ascii"] = rr.ASCII
	c[reprKey] = cfg.repr(rr.Hex, rr.Swatch, rr.ASCII)
	return c
}

// Context is the complete value set a template renders against. Built
// fresh per template and scheme pair; never shared across renders because
// the render mode differs per template.
type Context map[string]any

// HasSetSentinel reports whether the context carries the explicit-roles
// sentinel. A context without it was not produced by BuildContext.
func (c Context) HasSetSentinel() bool {
	_, ok := c[setKey]
	return ok
}

// IsSet reports whether the scheme author explicitly assigned the named
// role. Exposed to templates as the `set` function.
func (c Context) IsSet(role string) bool {
	roles, _ := c[setKey].([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// BuildContext flattens a scheme into template values: ungrouped roles at
// the top level, grouped roles nested one level, plus palette, meta,
// scheme names, the current swatch for swatch-iterated templates (empty
// string for none) and upstream link fields.
func BuildContext(s *Scheme, cfg RenderConfig, special Special, currentSwatch string) (Context, error) {
	ctx := Context{}
	swatchRoles := s.SwatchRoles()

	insertMeta(ctx, s, cfg)
	insertPalette(ctx, s, swatchRoles, cfg)

	groups := map[string]map[string]any{}
	for pair := s.Resolved.Oldest(); pair != nil; pair = pair.Next() {
		if err := insertRole(ctx, groups, s, pair.Key, pair.Value, cfg); err != nil {
			return nil, err
		}
	}
	for name, group := range groups {
		ctx[name] = group
	}

	if currentSwatch != "" {
		sw, ok := s.Palette.Get(currentSwatch)
		if !ok {
			return nil, bug.Errorf("scheme", "current swatch `%s` not in palette, but only valid swatch names should reach here", currentSwatch)
		}
		ctx["swatch"] = swatchColor(sw, swatchRoles[sw.Name], cfg)
	}

	ctx["special"] = map[string]any{
		"upstream_file": special.UpstreamFile,
		"upstream_repo": special.UpstreamRepo,
	}
	ctx[setKey] = s.SetRoles()

	return ctx, nil
}

func insertMeta(ctx Context, s *Scheme, cfg RenderConfig) {
	ctx["scheme"] = s.Name
	ctx["scheme_ascii"] = s.ASCII

	meta := s.Meta
	if cfg.Text == TextASCII {
		meta.Author = meta.AuthorASCII
		meta.License = meta.LicenseASCII
		meta.Blurb = meta.BlurbASCII
	}
	ctx["meta"] = map[string]any{
		"author":        meta.Author,
		"author_ascii":  meta.AuthorASCII,
		"license":       meta.License,
		"license_ascii": meta.LicenseASCII,
		"blurb":         meta.Blurb,
		"blurb_ascii":   meta.BlurbASCII,
	}
}

func insertPalette(ctx Context, s *Scheme, swatchRoles map[string][]string, cfg RenderConfig) {
	palette := make([]Color, 0, s.Palette.Len())
	for _, sw := range s.Palette.Swatches() {
		palette = append(palette, swatchColor(sw, swatchRoles[sw.Name], cfg))
	}
	ctx["palette"] = palette
}

func insertRole(ctx Context, groups map[string]map[string]any, s *Scheme, name string, rr ResolvedRole, cfg RenderConfig) error {
	if strings.Count(name, ".") > 1 {
		return bug.Errorf("scheme", "role `%s` not formatted like `[group.]role`", name)
	}
	sw, ok := s.Palette.Get(rr.Swatch)
	if !ok {
		return bug.Errorf("scheme", "resolved role `%s` references missing swatch `$%s`", name, rr.Swatch)
	}
	r, g, b := sw.RGB()
	obj := roleColor(rr, r, g, b, cfg)

	role := s.vocab.Role(s.vocab.Lookup(name))
	if role.Group == "" {
		ctx[role.Key] = obj
		return nil
	}
	if groups[role.Group] == nil {
		groups[role.Group] = map[string]any{}
	}
	groups[role.Group][role.Key] = obj
	return nil
}
