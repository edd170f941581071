// Package render is the orchestrator: it walks every template × scheme
// (× swatch) combination, decides per output file whether to write, and
// keeps the ledger in sync with what actually landed on disk.
package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/tessera-themes/tessera/api"
	"github.com/tessera-themes/tessera/internal/bug"
	"github.com/tessera-themes/tessera/internal/ledger"
	"github.com/tessera-themes/tessera/internal/scheme"
	"github.com/tessera-themes/tessera/internal/template"
)

// Formatter rewrites a just-written file in place (pretty-printing,
// canonical style). Failures propagate as ordinary errors.
type Formatter interface {
	Format(path string) error
}

// UpstreamResolver maps an output path to the public URL it will live at
// once pushed. Absence of upstream info is non-fatal; implementations
// return the zero Special.
type UpstreamResolver interface {
	Resolve(schemeName, renderPath string) scheme.Special
}

// Options wires a Renderer. Upstream and Formatter are optional.
type Options struct {
	FS        billy.Filesystem
	Loader    *template.Loader
	Schemes   *orderedmap.OrderedMap[string, *scheme.Scheme]
	Ledger    *ledger.Ledger[api.ManagedFile]
	RenderDir string
	Mode      WriteMode
	DryRun    bool
	Upstream  UpstreamResolver
	Formatter Formatter
	Log       *zap.Logger
}

// Renderer owns the ledger and the rendered-path set for the duration of
// one run. Not safe for concurrent use; a run is strictly sequential.
type Renderer struct {
	opts Options
	log  *zap.Logger

	schemeHashes map[string]string
	rendered     map[string]struct{}
}

func New(opts Options) *Renderer {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		opts:         opts,
		log:          log,
		schemeHashes: make(map[string]string),
		rendered:     make(map[string]struct{}),
	}
}

// Run renders everything and persists the ledger. On dry runs nothing is
// written and the ledger is discarded unsaved; a dry run is fully
// side-effect-free.
func (r *Renderer) Run() error {
	for _, tmpl := range r.opts.Loader.Templates() {
		if !tmpl.ShouldRender() {
			continue
		}
		if err := r.renderTemplate(tmpl); err != nil {
			return err
		}
	}

	if r.opts.DryRun {
		r.log.Info("dry run, ledger not saved")
		return nil
	}
	return r.opts.Ledger.Save()
}

func (r *Renderer) renderTemplate(tmpl *template.Template) error {
	if tmpl.UsesSwatchIteration() && !tmpl.ReferencesSwatch() {
		r.log.Warn("template has swatch marker in filename but doesn't use the swatch inside",
			zap.String("template", tmpl.Name))
	}

	for pair := r.opts.Schemes.Oldest(); pair != nil; pair = pair.Next() {
		s := pair.Value
		if tmpl.UsesSwatchIteration() {
			for _, sw := range s.Palette.Swatches() {
				if err := r.renderUnit(tmpl, s, sw.Name); err != nil {
					return err
				}
			}
		} else {
			if err := r.renderUnit(tmpl, s, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) renderUnit(tmpl *template.Template, s *scheme.Scheme, swatchName string) error {
	renderPath, err := ResolvePath(r.opts.RenderDir, tmpl.Name, s.Name, swatchName)
	if err != nil {
		return err
	}

	var special scheme.Special
	if r.opts.Upstream != nil {
		special = r.opts.Upstream.Resolve(s.Name, renderPath)
	}

	ctx, err := scheme.BuildContext(s, tmpl.Directives.RenderConfig(), special, swatchName)
	if err != nil {
		return err
	}

	text, err := tmpl.Render(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "map has no entry for key") {
			// The template vocabulary promises this field exists; the
			// context builder omitted it.
			return bug.Errorf("render", "undefined context value rendering `%s`: %v", tmpl.Name, err)
		}
		return fmt.Errorf("failed to render template `%s` with scheme `%s`: %w", tmpl.Name, s.Name, err)
	}
	content := tmpl.Directives.MakeHeader(tmpl.Name, special.UpstreamFile) + text

	schemeHash, err := r.schemeHash(s)
	if err != nil {
		return err
	}

	status := checkFile(r.opts.Ledger, r.opts.FS, renderPath, tmpl, schemeHash)
	decision := Decide(status, r.opts.Mode)
	r.rendered[renderPath] = struct{}{}

	if decision == Conflict {
		r.log.Warn("conflict: file was modified by the user, refusing to overwrite (use --force)",
			zap.String("path", renderPath))
		return nil
	}
	if !decision.ShouldWrite() {
		r.log.Debug("skipped", zap.String("path", renderPath))
		return nil
	}

	if r.opts.DryRun {
		r.log.Info("would write", zap.String("action", decision.Action()), zap.String("path", renderPath))
		return nil
	}
	return r.write(tmpl, s, renderPath, content, schemeHash, decision)
}

func (r *Renderer) write(tmpl *template.Template, s *scheme.Scheme, renderPath, content, schemeHash string, decision Decision) error {
	if dir := path.Dir(renderPath); dir != "." {
		if err := r.opts.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory `%s`: %w", dir, err)
		}
	}
	if err := util.WriteFile(r.opts.FS, renderPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write rendered file `%s`: %w", renderPath, err)
	}

	if r.opts.Formatter != nil {
		if err := r.opts.Formatter.Format(renderPath); err != nil {
			return err
		}
	}

	// Hash what is on disk after formatting, not the pre-format bytes,
	// or the next run would see every formatted file as user-modified.
	contentHash, ok := ledger.HashFile(r.opts.FS, renderPath)
	if !ok {
		return bug.Errorf("render", "just-written file `%s` is unreadable", renderPath)
	}
	r.opts.Ledger.Insert(makeEntry(renderPath, tmpl, s.Name, schemeHash, contentHash))

	r.log.Info("generated file", zap.String("action", decision.Action()), zap.String("path", renderPath))
	return nil
}

func (r *Renderer) schemeHash(s *scheme.Scheme) (string, error) {
	if h, ok := r.schemeHashes[s.Name]; ok {
		return h, nil
	}
	canonical, err := s.CanonicalJSON()
	if err != nil {
		return "", err
	}
	h := ledger.Hash(canonical)
	r.schemeHashes[s.Name] = h
	return h, nil
}

// ExpectedPaths computes every output path the current template × scheme
// set would produce, without rendering anything.
func (r *Renderer) ExpectedPaths() (map[string]struct{}, error) {
	expected := make(map[string]struct{})
	for _, tmpl := range r.opts.Loader.Templates() {
		if !tmpl.ShouldRender() {
			continue
		}
		for pair := r.opts.Schemes.Oldest(); pair != nil; pair = pair.Next() {
			s := pair.Value
			if tmpl.UsesSwatchIteration() {
				for _, sw := range s.Palette.Swatches() {
					p, err := ResolvePath(r.opts.RenderDir, tmpl.Name, s.Name, sw.Name)
					if err != nil {
						return nil, err
					}
					expected[p] = struct{}{}
				}
			} else {
				p, err := ResolvePath(r.opts.RenderDir, tmpl.Name, s.Name, "")
				if err != nil {
					return nil, err
				}
				expected[p] = struct{}{}
			}
		}
	}
	return expected, nil
}

// Prune removes tracked files the current inputs no longer produce and
// drops their ledger entries. Dry runs only report.
func (r *Renderer) Prune() error {
	expected, err := r.ExpectedPaths()
	if err != nil {
		return err
	}

	orphans := r.opts.Ledger.Orphans(expected)
	for _, orphan := range orphans {
		if r.opts.DryRun {
			r.log.Info("would prune", zap.String("path", orphan))
			continue
		}
		if err := r.opts.FS.Remove(orphan); err != nil {
			r.log.Warn("failed to remove orphaned file", zap.String("path", orphan), zap.Error(err))
		} else {
			r.log.Info("pruned", zap.String("path", orphan))
		}
		r.opts.Ledger.Remove(orphan)
	}

	if r.opts.DryRun {
		return nil
	}
	return r.opts.Ledger.Save()
}
