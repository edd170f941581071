package scheme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pelletier/go-toml/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// rawScheme mirrors the on-disk TOML document before validation.
type rawScheme struct {
	Scheme      string         `toml:"scheme"`
	SchemeASCII string         `toml:"scheme_ascii"`
	Meta        Meta           `toml:"meta"`
	Palette     map[string]any `toml:"palette"`
	Roles       map[string]any `toml:"roles"`
}

// Load reads and resolves one scheme file. The fallback name (usually the
// file stem) is used when the document does not set `scheme` itself.
func Load(fs billy.Filesystem, vocab *Vocabulary, fallbackName, path string) (*Scheme, error) {
	content, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scheme `%s`: %w", path, err)
	}

	var raw rawScheme
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("invalid toml syntax in `%s`: %w", path, err)
	}
	if err := raw.Meta.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	palette, err := parsePalette(raw.Palette, path)
	if err != nil {
		return nil, err
	}
	roles, err := parseRoles(vocab, raw.Roles, path)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveRoles(vocab, roles, palette)
	if err != nil {
		return nil, fmt.Errorf("scheme `%s`: %w", path, err)
	}

	name := raw.Scheme
	if name == "" {
		name = fallbackName
	}
	name, err = normalizeName(name, "scheme")
	if err != nil {
		return nil, err
	}

	ascii := raw.SchemeASCII
	if ascii == "" {
		ascii, err = asciiFallback(name, "scheme")
	} else {
		ascii, err = normalizeName(ascii, "scheme")
		if err == nil {
			err = validateASCIIName(ascii, "scheme")
		}
	}
	if err != nil {
		return nil, err
	}

	meta := raw.Meta
	fillMetaASCII(&meta)

	return &Scheme{
		Name:     name,
		ASCII:    ascii,
		Meta:     meta,
		Palette:  palette,
		Roles:    roles,
		Resolved: resolved,
		vocab:    vocab,
	}, nil
}

// fillMetaASCII derives missing *_ascii meta fields by transliteration.
// Best effort: meta fields are prose, so a failed transliteration just
// leaves the field empty.
func fillMetaASCII(m *Meta) {
	derive := func(display, ascii string) string {
		if ascii != "" || display == "" {
			return ascii
		}
		if a, err := asciiFallback(display, "meta"); err == nil {
			return a
		}
		return ""
	}
	m.AuthorASCII = derive(m.Author, m.AuthorASCII)
	m.LicenseASCII = derive(m.License, m.LicenseASCII)
	m.BlurbASCII = derive(m.Blurb, m.BlurbASCII)
}

// parsePalette accepts either `name = "#hex"` or
// `name = { color = "#hex", ascii = "name" }` entries. TOML tables do not
// preserve author order, so swatches are stored sorted by name for
// deterministic iteration.
func parsePalette(table map[string]any, path string) (*Palette, error) {
	if table == nil {
		return nil, fmt.Errorf("scheme `%s` has no `palette` section", path)
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	palette := NewPalette()
	for _, key := range keys {
		var hex, ascii string
		switch v := table[key].(type) {
		case string:
			hex = v
		case map[string]any:
			var ok bool
			if hex, ok = v["color"].(string); !ok {
				return nil, fmt.Errorf("invalid toml structure for swatch `%s` in `%s`: `color` must be a string", key, path)
			}
			if raw, present := v["ascii"]; present {
				if ascii, ok = raw.(string); !ok {
					return nil, fmt.Errorf("invalid toml structure for swatch `%s` in `%s`: `ascii` must be a string", key, path)
				}
			}
		default:
			return nil, fmt.Errorf("invalid toml structure for swatch `%s` in `%s`: must be a hex string or a table", key, path)
		}

		swatch, err := NewSwatch(key, hex, ascii)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		palette.Add(swatch)
	}

	if err := palette.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return palette, nil
}

// parseRoles flattens the `[roles]` table, including one level of nested
// group tables (`[roles.syntax]` entries become `syntax.<key>`).
func parseRoles(vocab *Vocabulary, table map[string]any, path string) (map[string]RoleValue, error) {
	if table == nil {
		return nil, fmt.Errorf("scheme `%s` has no `roles` section", path)
	}

	roles := make(map[string]RoleValue)
	var parseOne func(key string, val any) error
	parseOne = func(key string, val any) error {
		switch v := val.(type) {
		case string:
			if vocab.Lookup(key) < 0 {
				return fmt.Errorf("invalid roles structure in `%s`: invalid role name: `%s`", path, key)
			}
			rv, err := ParseRoleValue(vocab, v)
			if err != nil {
				return fmt.Errorf("invalid roles structure in `%s`: %w", path, err)
			}
			roles[key] = rv
			return nil
		case map[string]any:
			for nested, nestedVal := range v {
				if err := parseOne(key+"."+nested, nestedVal); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("invalid roles structure in `%s`: role `%s` must be a string", path, key)
		}
	}

	for key, val := range table {
		if err := parseOne(key, val); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// LoadAll loads every .toml file under dir. A scheme that fails to load is
// excluded and its error reported; other schemes are unaffected. Schemes
// are returned keyed by file stem in walk order.
func LoadAll(fs billy.Filesystem, vocab *Vocabulary, dir string) (*orderedmap.OrderedMap[string, *Scheme], []error) {
	schemes := orderedmap.New[string, *Scheme]()
	var errs []error

	walkErr := util.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".toml") {
			return nil
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		s, loadErr := Load(fs, vocab, name, path)
		if loadErr != nil {
			errs = append(errs, loadErr)
			return nil
		}
		schemes.Set(name, s)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walking scheme dir `%s`: %w", dir, walkErr))
	}

	return schemes, errs
}
