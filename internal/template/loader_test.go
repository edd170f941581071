package template

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tessera-themes/tessera/internal/scheme"
)

func writeTemplate(t *testing.T, fs billy.Filesystem, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
}

func loadOne(t *testing.T, path, content string) *Template {
	t.Helper()
	fs := memfs.New()
	writeTemplate(t, fs, path, content)
	l, err := NewLoader(fs, "templates", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	return l.Templates()[0]
}

func testContext() scheme.Context {
	return scheme.Context{
		"bg": scheme.Color{
			"hex":   "#000000",
			"name":  "black",
			"_repr": "#000000",
		},
		"scheme": "night",
		"_set":   []string{"bg"},
	}
}

func TestLoader_NamesAndSuffix(t *testing.T) {
	fs := memfs.New()
	writeTemplate(t, fs, "templates/app/SCHEME.conf.tmpl", "bg={{.bg.hex}}")
	writeTemplate(t, fs, "templates/README.md", "not a template")

	l, err := NewLoader(fs, "templates", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())

	tmpl, ok := l.Get("app/SCHEME.conf.tmpl")
	require.True(t, ok)
	assert.Equal(t, "bg={{.bg.hex}}", tmpl.Source())
	assert.True(t, tmpl.ShouldRender())
	assert.False(t, tmpl.UsesSwatchIteration())
}

func TestTemplate_Render(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.conf.tmpl", "bg={{.bg.hex}} bare={{.bg}}")

	out, err := tmpl.Render(testContext())
	require.NoError(t, err)
	assert.Equal(t, "bg=#000000 bare=#000000", out)
}

func TestTemplate_RenderMissingKeyFails(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.conf.tmpl", "x={{.bg.nope}}")

	_, err := tmpl.Render(testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map has no entry for key")
}

func TestTemplate_RenderWithoutSentinelIsABug(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.conf.tmpl", "bg={{.bg.hex}}")

	ctx := testContext()
	delete(ctx, "_set")
	_, err := tmpl.Render(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "this is a bug!")
}

func TestTemplate_SetFunction(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.conf.tmpl",
		`{{if set "bg"}}have-bg{{end}}{{if set "fg"}}have-fg{{end}}`)

	out, err := tmpl.Render(testContext())
	require.NoError(t, err)
	assert.Equal(t, "have-bg", out)
}

func TestTemplate_CodeFunction(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.md.tmpl", `scheme: {{code .scheme}}`)

	out, err := tmpl.Render(testContext())
	require.NoError(t, err)
	assert.Equal(t, "scheme: `night`", out)
}

func TestTemplate_SkipPrefix(t *testing.T) {
	fs := memfs.New()
	writeTemplate(t, fs, "templates/_drafts/SCHEME.conf.tmpl", "x")
	writeTemplate(t, fs, "templates/_partial.tmpl", "x")
	writeTemplate(t, fs, "templates/real/SCHEME.conf.tmpl", "x")

	l, err := NewLoader(fs, "templates", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, l.Len())

	var rendered []string
	for _, tmpl := range l.Templates() {
		if tmpl.ShouldRender() {
			rendered = append(rendered, tmpl.Name)
		}
	}
	assert.Equal(t, []string{"real/SCHEME.conf.tmpl"}, rendered)
}

func TestTemplate_SwatchIteration(t *testing.T) {
	tmpl := loadOne(t, "templates/swatches/SCHEME-SWATCH.css.tmpl",
		".c { color: {{.swatch.hex}}; }")
	assert.True(t, tmpl.UsesSwatchIteration())
	assert.True(t, tmpl.ReferencesSwatch())

	plain := loadOne(t, "templates/swatches/SCHEME-SWATCH.txt.tmpl", "no swatch use")
	assert.True(t, plain.UsesSwatchIteration())
	assert.False(t, plain.ReferencesSwatch())
}

func TestDirectives_Parsing(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.conf.tmpl",
		"#| colors = name\n#| text = ascii\n#| header = ;\n\nbg={{.bg}}")

	assert.Equal(t, scheme.ColorName, tmpl.Directives.Colors)
	assert.Equal(t, scheme.TextASCII, tmpl.Directives.Text)
	assert.Equal(t, ";", tmpl.Directives.HeaderPrefix)
	// Directive block and the blank gap after it are stripped.
	assert.Equal(t, "bg={{.bg}}", tmpl.Source())
}

func TestDirectives_OnlyLeadingBlockCounts(t *testing.T) {
	tmpl := loadOne(t, "templates/SCHEME.conf.tmpl",
		"bg={{.bg.hex}}\n#| colors = name")

	assert.Equal(t, scheme.ColorHex, tmpl.Directives.Colors)
	assert.Equal(t, "bg={{.bg.hex}}\n#| colors = name", tmpl.Source())
}

func TestDirectives_Errors(t *testing.T) {
	fs := memfs.New()
	writeTemplate(t, fs, "templates/a.tmpl", "#| colors\nx")
	_, err := NewLoader(fs, "templates", zap.NewNop())
	assert.ErrorContains(t, err, "incomplete directive")

	fs = memfs.New()
	writeTemplate(t, fs, "templates/b.tmpl", "#| colors = purple\nx")
	_, err = NewLoader(fs, "templates", zap.NewNop())
	assert.ErrorContains(t, err, "expected `hex` or `name`")
}

func TestDirectives_MakeHeader(t *testing.T) {
	d := Directives{HeaderPrefix: "#"}
	h := d.MakeHeader("app/SCHEME.conf.tmpl", "https://example.com/f")
	assert.Equal(t, "# generated by tessera from app/SCHEME.conf.tmpl\n# https://example.com/f\n\n", h)

	h = d.MakeHeader("app/SCHEME.conf.tmpl", "")
	assert.Equal(t, "# generated by tessera from app/SCHEME.conf.tmpl\n\n", h)

	assert.Empty(t, Directives{}.MakeHeader("x", "y"))
}
