package scheme

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextScheme(t *testing.T) *Scheme {
	t.Helper()
	fs := memfs.New()
	writeScheme(t, fs, "s.toml", `
scheme = "Müsli"

[meta]
author = "Åsa"

[palette]
ink = "#102030"
paper = "#f0f0e0"

[roles]
bg = "$paper"
fg = "$ink"

[roles.syntax]
keyword = "fg"
`)
	v := testVocab(t, "bg", "fg", "fg_alt", "syntax.keyword")
	s, err := Load(fs, v, "s", "s.toml")
	require.NoError(t, err)
	return s
}

func TestBuildContext_Shape(t *testing.T) {
	s := contextScheme(t)
	ctx, err := BuildContext(s, RenderConfig{}, Special{}, "")
	require.NoError(t, err)

	assert.True(t, ctx.HasSetSentinel())
	assert.Equal(t, "Müsli", ctx["scheme"])
	assert.Equal(t, "Musli", ctx["scheme_ascii"])

	bg, ok := ctx["bg"].(Color)
	require.True(t, ok)
	assert.Equal(t, "#f0f0e0", bg["hex"])
	assert.Equal(t, "paper", bg["swatch"])
	assert.Equal(t, "paper", bg["name"])
	assert.Equal(t, 0xf0, bg["r"])
	assert.InDelta(t, float64(0xe0)/255.0, bg["bf"].(float64), 1e-9)

	// Grouped roles nest one level.
	syntax, ok := ctx["syntax"].(map[string]any)
	require.True(t, ok)
	kw, ok := syntax["keyword"].(Color)
	require.True(t, ok)
	assert.Equal(t, "#102030", kw["hex"])

	// Variant fell back to fg.
	alt, ok := ctx["fg_alt"].(Color)
	require.True(t, ok)
	assert.Equal(t, "#102030", alt["hex"])

	palette, ok := ctx["palette"].([]Color)
	require.True(t, ok)
	require.Len(t, palette, 2)
	// Palette order is sorted by swatch name.
	assert.Equal(t, "ink", palette[0]["name"])
	assert.ElementsMatch(t, []string{"fg", "fg_alt", "syntax.keyword"}, palette[0]["roles"])

	special, ok := ctx["special"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "", special["upstream_file"])
	assert.Equal(t, "", special["upstream_repo"])

	_, hasSwatch := ctx["swatch"]
	assert.False(t, hasSwatch)
}

func TestBuildContext_RenderModes(t *testing.T) {
	s := contextScheme(t)

	cases := []struct {
		cfg  RenderConfig
		want string
	}{
		{RenderConfig{Colors: ColorHex, Text: TextUnicode}, "#f0f0e0"},
		{RenderConfig{Colors: ColorHex, Text: TextASCII}, "#f0f0e0"},
		{RenderConfig{Colors: ColorName, Text: TextUnicode}, "paper"},
		{RenderConfig{Colors: ColorName, Text: TextASCII}, "paper"},
	}
	for _, tc := range cases {
		ctx, err := BuildContext(s, tc.cfg, Special{}, "")
		require.NoError(t, err)
		bg := ctx["bg"].(Color)
		assert.Equal(t, tc.want, bg.String())
	}
}

func TestBuildContext_ASCIIMeta(t *testing.T) {
	s := contextScheme(t)
	ctx, err := BuildContext(s, RenderConfig{Text: TextASCII}, Special{}, "")
	require.NoError(t, err)

	meta := ctx["meta"].(map[string]any)
	assert.Equal(t, "Asa", meta["author"])
	assert.Equal(t, "Asa", meta["author_ascii"])
}

func TestBuildContext_CurrentSwatch(t *testing.T) {
	s := contextScheme(t)

	ctx, err := BuildContext(s, RenderConfig{}, Special{}, "ink")
	require.NoError(t, err)
	sw, ok := ctx["swatch"].(Color)
	require.True(t, ok)
	assert.Equal(t, "ink", sw["name"])
	assert.Equal(t, "#102030", sw["hex"])

	_, err = BuildContext(s, RenderConfig{}, Special{}, "notthere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "this is a bug!")
}

func TestBuildContext_IsSet(t *testing.T) {
	s := contextScheme(t)
	ctx, err := BuildContext(s, RenderConfig{}, Special{}, "")
	require.NoError(t, err)

	assert.True(t, ctx.IsSet("bg"))
	assert.True(t, ctx.IsSet("syntax.keyword"))
	assert.False(t, ctx.IsSet("fg_alt"))
	assert.False(t, ctx.IsSet("never-a-role"))
}

func TestBuildContext_Special(t *testing.T) {
	s := contextScheme(t)
	special := Special{
		UpstreamFile: "https://github.com/x/y/blob/main/out/s/app.conf",
		UpstreamRepo: "https://github.com/x/y",
	}
	ctx, err := BuildContext(s, RenderConfig{}, special, "")
	require.NoError(t, err)

	m := ctx["special"].(map[string]any)
	assert.Equal(t, special.UpstreamFile, m["upstream_file"])
	assert.Equal(t, special.UpstreamRepo, m["upstream_repo"])
}
