// Package cmd wires the tessera CLI: the root command renders every
// template against every scheme; prune removes stale output.
package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tessera-themes/tessera/api"
	"github.com/tessera-themes/tessera/internal/config"
	"github.com/tessera-themes/tessera/internal/ledger"
	"github.com/tessera-themes/tessera/internal/output"
	"github.com/tessera-themes/tessera/internal/render"
	"github.com/tessera-themes/tessera/internal/scheme"
	"github.com/tessera-themes/tessera/internal/template"
)

var (
	verbose int
	quiet   bool
	keep    bool
	clean   bool
	force   bool
	dryRun  bool
)

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Output more info per invocation (-v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Silence all output except errors")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview changes without writing them to disk")

	rootCmd.Flags().BoolVarP(&keep, "keep", "k", false, "Don't overwrite existing files")
	rootCmd.Flags().BoolVarP(&clean, "clean", "c", false, "Delete current contents of the render directory before rendering")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite all existing files, even user-modified ones")

	rootCmd.MarkFlagsMutuallyExclusive("keep", "force")
	rootCmd.MarkFlagsMutuallyExclusive("keep", "clean")
}

func writeMode() render.WriteMode {
	switch {
	case force || clean:
		return render.ModeForce
	case keep:
		return render.ModeSkip
	default:
		return render.ModeSmart
	}
}

func newLogger() *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case quiet:
		level = zapcore.ErrorLevel
	case verbose == 1:
		level = zapcore.InfoLevel
	case verbose >= 2:
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// runtime is everything a command invocation needs, assembled once.
type runtime struct {
	fs       billy.Filesystem
	cfg      *config.Config
	loader   *template.Loader
	schemes  *orderedmap.OrderedMap[string, *scheme.Scheme]
	led      *ledger.Ledger[api.ManagedFile]
	renderer *render.Renderer
	log      *zap.Logger
}

func newRuntime() (*runtime, error) {
	log := newLogger()
	fs := osfs.New(".")

	cfg, err := config.Load(fs, config.DefaultPath)
	if err != nil {
		return nil, err
	}

	loader, err := template.NewLoader(fs, cfg.Dirs.Templates, log)
	if err != nil {
		return nil, err
	}

	schemes, schemeErrs := scheme.LoadAll(fs, scheme.DefaultVocabulary, cfg.Dirs.Schemes)
	for _, serr := range schemeErrs {
		log.Error("failed to load scheme", zap.Error(serr))
	}
	if schemes.Len() == 0 {
		if len(schemeErrs) > 0 {
			return nil, fmt.Errorf("no scheme loaded successfully")
		}
		return nil, fmt.Errorf("no schemes found in `%s`", cfg.Dirs.Schemes)
	}

	led, err := ledger.Open[api.ManagedFile](fs, ledger.DefaultPath, log)
	if err != nil {
		return nil, err
	}

	var upstreamCfg output.UpstreamConfig
	if cfg.Upstream != nil {
		upstreamCfg = output.UpstreamConfig{
			RepoPath: cfg.Upstream.RepoPath,
			Pattern:  cfg.Upstream.Pattern,
			Branch:   cfg.Upstream.Branch,
		}
	}

	renderer := render.New(render.Options{
		FS:        fs,
		Loader:    loader,
		Schemes:   schemes,
		Ledger:    led,
		RenderDir: cfg.Dirs.Render,
		Mode:      writeMode(),
		DryRun:    dryRun,
		Upstream:  output.NewResolver(upstreamCfg, cfg.Dirs.Render, log),
		Formatter: output.NewFormatter(fs, log),
		Log:       log,
	})

	return &runtime{
		fs:       fs,
		cfg:      cfg,
		loader:   loader,
		schemes:  schemes,
		led:      led,
		renderer: renderer,
		log:      log,
	}, nil
}

var rootCmd = &cobra.Command{
	Use:           "tessera",
	Short:         "Render themed config files from templates and color schemes",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

		if clean {
			if err := cleanRenderDir(rt); err != nil {
				return err
			}
		}
		return rt.renderer.Run()
	},
}

func cleanRenderDir(rt *runtime) error {
	dir := rt.cfg.Dirs.Render
	if _, err := rt.fs.Stat(dir); err != nil {
		return nil
	}
	if dryRun {
		rt.log.Info("would clean render directory", zap.String("dir", dir))
		return nil
	}
	if err := removeAll(rt.fs, dir); err != nil {
		return fmt.Errorf("failed to clean `%s`: %w", dir, err)
	}
	rt.log.Info("cleaned render directory", zap.String("dir", dir))
	return nil
}

func removeAll(fs billy.Filesystem, dir string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		full := fs.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := removeAll(fs, full); err != nil {
				return err
			}
		} else if err := fs.Remove(full); err != nil {
			return err
		}
	}
	return fs.Remove(dir)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
