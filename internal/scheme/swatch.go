package scheme

import (
	"fmt"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Swatch is one named color in a scheme's palette. Identity is the display
// name (case-sensitive); immutable after construction.
type Swatch struct {
	Name  string `json:"name"`
	ASCII string `json:"ascii"`
	Hex   string `json:"hex"`

	color colorful.Color
}

// NewSwatch validates the display name, normalizes the hex color to
// lowercase `#rrggbb` form and derives the ascii name when none is given.
func NewSwatch(name, hex, ascii string) (Swatch, error) {
	displayName, err := normalizeName(name, "swatch")
	if err != nil {
		return Swatch{}, err
	}

	color, err := colorful.Hex(hex)
	if err != nil {
		return Swatch{}, fmt.Errorf("invalid color %q for swatch %q: %w", hex, displayName, err)
	}

	if ascii == "" {
		ascii, err = asciiFallback(displayName, "swatch")
	} else {
		ascii, err = normalizeName(ascii, "swatch")
		if err == nil {
			err = validateASCIIName(ascii, "swatch")
		}
	}
	if err != nil {
		return Swatch{}, err
	}

	return Swatch{
		Name:  displayName,
		ASCII: ascii,
		Hex:   strings.ToLower(color.Hex()),
		color: color,
	}, nil
}

// RGB returns the swatch color as 8-bit channels.
func (s Swatch) RGB() (r, g, b uint8) {
	return s.color.RGB255()
}

// Palette is an insertion-ordered set of swatches keyed by display name.
type Palette struct {
	swatches *orderedmap.OrderedMap[string, Swatch]
}

func NewPalette() *Palette {
	return &Palette{swatches: orderedmap.New[string, Swatch]()}
}

func (p *Palette) Add(s Swatch) {
	p.swatches.Set(s.Name, s)
}

func (p *Palette) Get(name string) (Swatch, bool) {
	return p.swatches.Get(name)
}

func (p *Palette) Len() int {
	return p.swatches.Len()
}

// Swatches returns the palette in insertion order.
func (p *Palette) Swatches() []Swatch {
	out := make([]Swatch, 0, p.swatches.Len())
	for pair := p.swatches.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Validate rejects palettes whose names collide case-insensitively or
// collapse to the same ascii fallback. Both collisions surface every
// offending name at load time, not at resolve time.
func (p *Palette) Validate() error {
	byFold := map[string][]string{}
	byASCII := map[string][]string{}
	for pair := p.swatches.Oldest(); pair != nil; pair = pair.Next() {
		s := pair.Value
		fold := strings.ToLower(s.Name)
		byFold[fold] = append(byFold[fold], s.Name)
		byASCII[s.ASCII] = append(byASCII[s.ASCII], s.Name)
	}

	if key, names := firstCollision(byFold); key != "" {
		return fmt.Errorf("swatches %s differ only in case", quoteNames(names))
	}
	if key, names := firstCollision(byASCII); key != "" {
		return fmt.Errorf("%s fall back to the same ascii name `%s`", quoteNames(names), key)
	}
	return nil
}

func firstCollision(groups map[string][]string) (string, []string) {
	keys := make([]string, 0, len(groups))
	for k, names := range groups {
		if len(names) > 1 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)
	return keys[0], groups[keys[0]]
}

func quoteNames(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, fmt.Sprintf("`%s`", n))
	}
	return strings.Join(quoted, ", ")
}
