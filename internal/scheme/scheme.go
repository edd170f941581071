// Package scheme loads color scheme documents and resolves their symbolic
// role assignments into concrete colors. A Scheme is read-only input to
// rendering: roles are resolved once at load time and never re-walked.
package scheme

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const maxMetaFieldLength = 1000

// Meta carries optional authorship fields. The *_ascii variants are used
// for templates that demand pure-ascii output; when unset they are derived
// by transliteration.
type Meta struct {
	Author       string `toml:"author" json:"author,omitempty"`
	AuthorASCII  string `toml:"author_ascii" json:"author_ascii,omitempty"`
	License      string `toml:"license" json:"license,omitempty"`
	LicenseASCII string `toml:"license_ascii" json:"license_ascii,omitempty"`
	Blurb        string `toml:"blurb" json:"blurb,omitempty"`
	BlurbASCII   string `toml:"blurb_ascii" json:"blurb_ascii,omitempty"`
}

func (m Meta) validate() error {
	fields := map[string]string{
		"author":        m.Author,
		"author_ascii":  m.AuthorASCII,
		"license":       m.License,
		"license_ascii": m.LicenseASCII,
		"blurb":         m.Blurb,
		"blurb_ascii":   m.BlurbASCII,
	}
	for name, value := range fields {
		if len(value) > maxMetaFieldLength {
			return fmt.Errorf("invalid meta field `%s`: too long (%d characters; max is %d)", name, len(value), maxMetaFieldLength)
		}
	}
	return nil
}

// Scheme is one loaded scheme document: palette, raw role assignments and
// the flattened resolved roles. Immutable once loaded.
type Scheme struct {
	Name     string
	ASCII    string
	Meta     Meta
	Palette  *Palette
	Roles    map[string]RoleValue
	Resolved *orderedmap.OrderedMap[string, ResolvedRole]

	vocab *Vocabulary
}

// Vocabulary returns the role vocabulary the scheme was resolved against.
func (s *Scheme) Vocabulary() *Vocabulary { return s.vocab }

// canonicalScheme is the stable serialized form used for scheme hashing.
// Arrays, not maps, so field and entry order never depends on runtime map
// iteration.
type canonicalScheme struct {
	Scheme      string              `json:"scheme"`
	SchemeASCII string              `json:"scheme_ascii"`
	Meta        Meta                `json:"meta"`
	Palette     []Swatch            `json:"palette"`
	Roles       []canonicalResolved `json:"roles"`
}

type canonicalResolved struct {
	Role string `json:"role"`
	ResolvedRole
}

// CanonicalJSON serializes the scheme with stable field and entry order.
// Any change to name, meta, palette or resolved roles changes these bytes,
// which is what invalidates previously generated files.
func (s *Scheme) CanonicalJSON() ([]byte, error) {
	doc := canonicalScheme{
		Scheme:      s.Name,
		SchemeASCII: s.ASCII,
		Meta:        s.Meta,
		Palette:     s.Palette.Swatches(),
	}
	for pair := s.Resolved.Oldest(); pair != nil; pair = pair.Next() {
		doc.Roles = append(doc.Roles, canonicalResolved{Role: pair.Key, ResolvedRole: pair.Value})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing scheme `%s`: %w", s.Name, err)
	}
	return data, nil
}

// SetRoles returns the names of roles the author explicitly assigned, in
// vocabulary order. Templates use this through the `set` test.
func (s *Scheme) SetRoles() []string {
	out := make([]string, 0, len(s.Roles))
	for _, name := range s.vocab.Names() {
		if _, ok := s.Roles[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// SwatchRoles maps every palette swatch name to the roles that resolved to
// it, preserving palette and vocabulary order.
func (s *Scheme) SwatchRoles() map[string][]string {
	m := make(map[string][]string, s.Palette.Len())
	for _, sw := range s.Palette.Swatches() {
		m[sw.Name] = nil
	}
	for pair := s.Resolved.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := m[pair.Value.Swatch]; ok {
			m[pair.Value.Swatch] = append(m[pair.Value.Swatch], pair.Key)
		}
	}
	return m
}
