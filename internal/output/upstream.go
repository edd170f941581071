package output

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/tessera-themes/tessera/internal/scheme"
)

// GitInfo is what upstream resolution needs to know about one repository.
type GitInfo struct {
	Root          string
	RemoteURL     string
	RemoteHost    string
	DefaultBranch string
}

// normalizeRemote turns any common git remote form (scp-like, ssh, git,
// https) into a canonical https web URL plus its host.
func normalizeRemote(remote string) (fullURL, host string, err error) {
	s := remote

	// scp-like: git@github.com:owner/repo.git
	if !strings.Contains(s, "://") {
		if at := strings.Index(s, "@"); at >= 0 {
			s = s[at+1:]
		}
		hostPart, pathPart, found := strings.Cut(s, ":")
		if !found || hostPart == "" {
			return "", "", fmt.Errorf("failed to parse git url `%s`", remote)
		}
		s = "https://" + hostPart + "/" + pathPart
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse git url `%s`: %w", remote, err)
	}
	if parsed.Hostname() == "" {
		return "", "", fmt.Errorf("failed to get the host in git url `%s`", remote)
	}

	cleanPath := strings.TrimPrefix(parsed.Path, "/")
	cleanPath = strings.TrimSuffix(cleanPath, ".git")
	return "https://" + parsed.Hostname() + "/" + cleanPath, parsed.Hostname(), nil
}

// inferURLPattern guesses the file-link layout from the hosting provider.
func inferURLPattern(host string) string {
	const (
		githubStyle    = "{base}/blob/{branch}/{file}"
		gitlabStyle    = "{base}/-/blob/{branch}/{file}"
		giteaStyle     = "{base}/src/branch/{branch}/{file}"
		bitbucketStyle = "{base}/src/{branch}/{file}"
	)

	switch host {
	case "github.com":
		return githubStyle
	case "gitlab.com":
		return gitlabStyle
	case "codeberg.org":
		return giteaStyle
	case "bitbucket.org":
		return bitbucketStyle
	}
	switch {
	case strings.HasSuffix(host, ".gitlab.com") || strings.Contains(host, "gitlab."):
		return gitlabStyle
	case strings.Contains(host, "gitea"):
		return giteaStyle
	default:
		return githubStyle
	}
}

// BuildURL renders the file link for relPath inside the repository.
// Pattern and branch overrides come from config; empty means inferred.
func BuildURL(info *GitInfo, relPath, patternOverride, branchOverride string) string {
	file := filepath.ToSlash(relPath)

	branch := branchOverride
	if branch == "" {
		branch = info.DefaultBranch
	}
	pattern := patternOverride
	if pattern == "" {
		pattern = inferURLPattern(info.RemoteHost)
	}

	url := strings.ReplaceAll(pattern, "{base}", info.RemoteURL)
	url = strings.ReplaceAll(url, "{branch}", branch)
	return strings.ReplaceAll(url, "{file}", file)
}

// ExtractBaseURL strips the file-link part back off a built URL, leaving
// the repository page.
func ExtractBaseURL(fullURL string) string {
	// Longer separators first: `/-/blob/` contains `/blob/` and
	// `/src/branch/` contains `/src/`.
	for _, sep := range []string{"/-/blob/", "/blob/", "/src/branch/", "/src/"} {
		if pos := strings.Index(fullURL, sep); pos >= 0 {
			return fullURL[:pos]
		}
	}
	return ""
}

// GitCache memoizes repository detection per repo root for one run.
type GitCache struct {
	entries map[string]*GitInfo
	log     *zap.Logger
}

func NewGitCache(log *zap.Logger) *GitCache {
	return &GitCache{entries: make(map[string]*GitInfo), log: log}
}

// GetOrDetect discovers the repository containing path. Returns nil when
// there is none or it has no usable remote; both are non-fatal.
func (c *GitCache) GetOrDetect(path string) *GitInfo {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		c.log.Warn("failed to discover git repo", zap.String("path", path), zap.Error(err))
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		c.log.Warn("git repo has no working dir (bare repo?)", zap.String("path", path))
		return nil
	}
	root := wt.Filesystem.Root()

	if info, cached := c.entries[root]; cached {
		return info
	}

	info := infoFromRepo(repo, root, c.log)
	if info == nil {
		c.log.Warn("failed to extract info from repo", zap.String("root", root))
	}
	c.entries[root] = info
	return info
}

func infoFromRepo(repo *git.Repository, root string, log *zap.Logger) *GitInfo {
	remote, err := repo.Remote("origin")
	if err != nil {
		remotes, rerr := repo.Remotes()
		if rerr != nil || len(remotes) == 0 {
			return nil
		}
		remote = remotes[0]
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil
	}

	fullURL, host, err := normalizeRemote(urls[0])
	if err != nil {
		log.Warn("failed to normalize git url", zap.String("url", urls[0]), zap.Error(err))
		return nil
	}

	return &GitInfo{
		Root:          root,
		RemoteURL:     fullURL,
		RemoteHost:    host,
		DefaultBranch: detectDefaultBranch(repo),
	}
}

func detectDefaultBranch(repo *git.Repository) string {
	ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), false)
	if err == nil && ref.Type() == plumbing.SymbolicReference {
		if branch, ok := strings.CutPrefix(ref.Target().String(), "refs/remotes/origin/"); ok {
			return branch
		}
	}
	return "main"
}

// UpstreamConfig are the user-configurable upstream settings.
type UpstreamConfig struct {
	// RepoPath maps render output into a checkout of the repo the files
	// are published from. Empty means detect from the render path itself.
	RepoPath string
	// Pattern overrides the inferred file-link layout.
	Pattern string
	// Branch overrides the detected default branch.
	Branch string
}

// Resolver resolves output paths to upstream URLs for template contexts.
type Resolver struct {
	cache     *GitCache
	cfg       UpstreamConfig
	renderDir string
	log       *zap.Logger
}

func NewResolver(cfg UpstreamConfig, renderDir string, log *zap.Logger) *Resolver {
	return &Resolver{
		cache:     NewGitCache(log),
		cfg:       cfg,
		renderDir: renderDir,
		log:       log,
	}
}

// Resolve maps one output path to its upstream link fields. Failures only
// degrade: rendering proceeds with empty fields.
func (r *Resolver) Resolve(schemeName, renderPath string) scheme.Special {
	var target string
	if r.cfg.RepoPath != "" {
		prefix := filepath.Join(r.renderDir, schemeName)
		rel, err := filepath.Rel(prefix, renderPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			r.log.Warn("configuring repo_path mode... render path not under render dir",
				zap.String("path", renderPath))
			return scheme.Special{}
		}
		target = filepath.Join(r.cfg.RepoPath, rel)
	} else {
		abs, err := filepath.Abs(renderPath)
		if err != nil {
			r.log.Warn("auto-detect mode... failed to resolve render path",
				zap.String("path", renderPath), zap.Error(err))
			return scheme.Special{}
		}
		target = abs
	}

	info := r.cache.GetOrDetect(filepath.Dir(target))
	if info == nil {
		return scheme.Special{}
	}

	rel, err := filepath.Rel(info.Root, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		r.log.Warn("path not under repo root",
			zap.String("path", target), zap.String("root", info.Root))
		return scheme.Special{}
	}

	url := BuildURL(info, rel, r.cfg.Pattern, r.cfg.Branch)
	return scheme.Special{
		UpstreamFile: url,
		UpstreamRepo: ExtractBaseURL(url),
	}
}
