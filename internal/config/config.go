// Package config loads tessera.hcl. Every field has a sensible default;
// a missing config file is not an error.
package config

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// DefaultPath is the config file location relative to the project root.
const DefaultPath = "tessera.hcl"

// Dirs are the three project directories.
type Dirs struct {
	Schemes   string `hcl:"schemes,optional"`
	Templates string `hcl:"templates,optional"`
	Render    string `hcl:"render,optional"`
}

// Upstream configures how output files are linked back to their public
// home. All fields optional; empty means auto-detect.
type Upstream struct {
	RepoPath string `hcl:"repo_path,optional"`
	Pattern  string `hcl:"pattern,optional"`
	Branch   string `hcl:"branch,optional"`
}

// Config is the full tessera.hcl document.
type Config struct {
	Dirs     *Dirs     `hcl:"dirs,block"`
	Upstream *Upstream `hcl:"upstream,block"`
}

func defaultDirs() *Dirs {
	return &Dirs{
		Schemes:   "schemes",
		Templates: "templates",
		Render:    "render",
	}
}

// Load reads the config at path, applying defaults for anything unset.
// A missing file yields the full default config.
func Load(fs billy.Filesystem, path string) (*Config, error) {
	cfg := &Config{}

	content, err := util.ReadFile(fs, path)
	if os.IsNotExist(err) {
		cfg.Dirs = defaultDirs()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config `%s`: %w", path, err)
	}

	if err := hclsimple.Decode(path, content, nil, cfg); err != nil {
		return nil, fmt.Errorf("invalid config `%s`: %w", path, err)
	}

	if cfg.Dirs == nil {
		cfg.Dirs = defaultDirs()
	}
	applyDefault(&cfg.Dirs.Schemes, "schemes")
	applyDefault(&cfg.Dirs.Templates, "templates")
	applyDefault(&cfg.Dirs.Render, "render")
	expand(cfg)

	return cfg, nil
}

func applyDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// expand substitutes $VAR in every path-valued field, so configs can say
// repo_path = "$HOME/src/themes". The braced form belongs to HCL's own
// interpolation and is not supported here.
func expand(cfg *Config) {
	cfg.Dirs.Schemes = os.ExpandEnv(cfg.Dirs.Schemes)
	cfg.Dirs.Templates = os.ExpandEnv(cfg.Dirs.Templates)
	cfg.Dirs.Render = os.ExpandEnv(cfg.Dirs.Render)
	if cfg.Upstream != nil {
		cfg.Upstream.RepoPath = os.ExpandEnv(cfg.Upstream.RepoPath)
	}
}
