package render

import (
	"path"
	"strings"

	"github.com/tessera-themes/tessera/internal/bug"
	"github.com/tessera-themes/tessera/internal/template"
)

// ResolvePath maps a template name to its output path: the `.tmpl` suffix
// comes off, filename markers are substituted and the result lands under
// a per-scheme subdirectory of the render dir. swatchName is empty for
// templates that don't iterate swatches.
func ResolvePath(renderDir, templateName, schemeName, swatchName string) (string, error) {
	rel := strings.TrimSuffix(templateName, template.Suffix)

	filename := path.Base(rel)
	if filename == "." || filename == "/" || filename == "" {
		return "", bug.Errorf("render", "attempted to render to corrupted path `%s`", rel)
	}

	parents := path.Dir(rel)
	if parents == "." {
		parents = ""
	}

	filename = strings.ReplaceAll(filename, template.SchemeMarker, schemeName)
	if swatchName != "" {
		filename = strings.ReplaceAll(filename, template.SwatchMarker, swatchName)
	}

	return path.Join(renderDir, schemeName, parents, filename), nil
}
