package output

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func formatFile(t *testing.T, path, content string) (billy.Filesystem, string) {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))

	f := NewFormatter(fs, zap.NewNop())
	require.NoError(t, f.Format(path))

	out, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	return fs, string(out)
}

func TestFormatter_JSON(t *testing.T) {
	_, out := formatFile(t, "out/theme.json", `{"b":1,"a":{"nested":[1,2]}}`)

	assert.Contains(t, out, "\n")
	assert.Contains(t, out, `"nested"`)
	assert.True(t, out[len(out)-1] == '\n')
}

func TestFormatter_JSONIdempotent(t *testing.T) {
	fs, once := formatFile(t, "out/theme.json", `{"b": 1, "a": 2}`)

	f := NewFormatter(fs, zap.NewNop())
	require.NoError(t, f.Format("out/theme.json"))
	twice, err := util.ReadFile(fs, "out/theme.json")
	require.NoError(t, err)
	assert.Equal(t, once, string(twice))
}

func TestFormatter_JSONInvalid(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "out/bad.json", []byte("{nope"), 0o644))

	f := NewFormatter(fs, zap.NewNop())
	err := f.Format("out/bad.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to format file `out/bad.json`")
}

func TestFormatter_Go(t *testing.T) {
	_, out := formatFile(t, "out/palette.go", "package palette\nvar  X   =   1\n")
	assert.Equal(t, "package palette\n\nvar X = 1\n", out)
}

func TestFormatter_XML(t *testing.T) {
	fs, out := formatFile(t, "out/theme.xml", `<theme><color name="bg">#000000</color></theme>`)
	assert.Contains(t, out, "\n  <color")

	f := NewFormatter(fs, zap.NewNop())
	require.NoError(t, f.Format("out/theme.xml"))
	twice, err := util.ReadFile(fs, "out/theme.xml")
	require.NoError(t, err)
	assert.Equal(t, out, string(twice))
}

func TestFormatter_UnknownExtensionUntouched(t *testing.T) {
	_, out := formatFile(t, "out/app.conf", "bg   =   #000000")
	assert.Equal(t, "bg   =   #000000", out)
}
