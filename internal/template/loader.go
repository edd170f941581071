// Package template loads and compiles text templates from the template
// directory, including their per-template directive blocks.
package template

import (
	"fmt"
	"os"
	"strings"
	texttemplate "text/template"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/tessera-themes/tessera/internal/bug"
	"github.com/tessera-themes/tessera/internal/scheme"
)

const (
	// Suffix marks files in the template directory that are templates;
	// everything else is ignored. The suffix is stripped from output names.
	Suffix = ".tmpl"

	// SchemeMarker in a template filename is replaced with the scheme name.
	SchemeMarker = "SCHEME"

	// SwatchMarker in a template filename switches the template to
	// per-swatch rendering and is replaced with each swatch name.
	SwatchMarker = "SWATCH"

	// SkipPrefix on any path segment excludes a template from rendering.
	// Used for partials and work in progress.
	SkipPrefix = "_"
)

// Template is one compiled template plus its directives. Source is the
// directive-stripped text the engine actually evaluates; hashes are
// computed over it.
type Template struct {
	Name       string
	Directives Directives

	source string
	tmpl   *texttemplate.Template
}

// Source returns the evaluated template text.
func (t *Template) Source() string { return t.source }

// ShouldRender reports whether the template takes part in rendering. A
// `_` prefix on any path segment marks it as skipped.
func (t *Template) ShouldRender() bool {
	for _, part := range strings.Split(t.Name, "/") {
		if strings.HasPrefix(part, SkipPrefix) {
			return false
		}
	}
	return true
}

// UsesSwatchIteration reports whether the template renders once per
// palette swatch instead of once per scheme.
func (t *Template) UsesSwatchIteration() bool {
	return strings.Contains(t.Name, SwatchMarker)
}

// ReferencesSwatch reports whether the template body actually uses the
// current-swatch value. Swatch-iterated templates that don't are almost
// always a mistake worth warning about.
func (t *Template) ReferencesSwatch() bool {
	return strings.Contains(t.source, ".swatch")
}

// Render evaluates the template against a context. The `set` function is
// bound per render because it closes over the context's explicitly
// assigned roles.
func (t *Template) Render(ctx scheme.Context) (string, error) {
	if !ctx.HasSetSentinel() {
		return "", bug.Errorf("template", "context for `%s` missing the set-roles sentinel", t.Name)
	}

	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return "", bug.Errorf("template", "cloning compiled template `%s`: %v", t.Name, err)
	}
	// Clone does not carry over parse options on Go < 1.22, so the
	// missingkey setting from compilation must be re-applied here.
	tmpl.Option("missingkey=error")
	tmpl.Funcs(texttemplate.FuncMap{"set": ctx.IsSet})

	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Loader holds every compiled template in walk order.
type Loader struct {
	templates *orderedmap.OrderedMap[string, *Template]
}

// baseFuncs are the template functions that don't depend on render-time
// state. `set` is bound per render in Template.Render; it is stubbed here
// so compilation succeeds.
func baseFuncs() texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"code": func(s string) string { return "`" + s + "`" },
		"set":  func(string) bool { return false },
	}
}

// NewLoader walks dir and compiles every template file found. Template
// names are their paths relative to dir, always with `/` separators.
func NewLoader(fs billy.Filesystem, dir string, log *zap.Logger) (*Loader, error) {
	l := &Loader{templates: orderedmap.New[string, *Template]()}

	walkErr := util.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, Suffix) {
			return nil
		}

		name := strings.TrimPrefix(path, dir)
		name = strings.TrimPrefix(name, "/")
		name = strings.ReplaceAll(name, "\\", "/")
		if name == "" {
			return bug.Errorf("template", "attempted to load template with corrupted path `%s`", path)
		}

		raw, err := util.ReadFile(fs, path)
		if err != nil {
			return fmt.Errorf("failed to read template `%s`: %w", path, err)
		}

		directives, body, err := parseDirectives(string(raw), name, log)
		if err != nil {
			return err
		}

		tmpl, err := texttemplate.New(name).
			Option("missingkey=error").
			Funcs(baseFuncs()).
			Parse(body)
		if err != nil {
			return fmt.Errorf("template compilation failed for `%s`: %w", name, err)
		}

		l.templates.Set(name, &Template{
			Name:       name,
			Directives: directives,
			source:     body,
			tmpl:       tmpl,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return l, nil
}

// Templates returns every loaded template in walk order.
func (l *Loader) Templates() []*Template {
	out := make([]*Template, 0, l.templates.Len())
	for pair := l.templates.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Get returns a template by name.
func (l *Loader) Get(name string) (*Template, bool) {
	return l.templates.Get(name)
}

// Len returns the number of loaded templates.
func (l *Loader) Len() int { return l.templates.Len() }
