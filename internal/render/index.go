package render

import (
	"github.com/go-git/go-billy/v5"

	"github.com/tessera-themes/tessera/api"
	"github.com/tessera-themes/tessera/internal/ledger"
	"github.com/tessera-themes/tessera/internal/template"
)

// checkFile compares an output path against its ledger entry and the
// inputs about to be rendered. schemeHash is precomputed per scheme since
// it is the same for every file the scheme produces.
func checkFile(led *ledger.Ledger[api.ManagedFile], fs billy.Filesystem, path string, tmpl *template.Template, schemeHash string) ledger.FileStatus {
	entry, ok := led.Get(path)
	if !ok {
		return ledger.FileStatus{}
	}

	currentHash, exists := ledger.HashFile(fs, path)
	return ledger.FileStatus{
		Tracked:         true,
		FileExists:      exists,
		UserModified:    exists && currentHash != entry.Hash,
		TemplateChanged: ledger.Hash([]byte(tmpl.Source())) != entry.TemplateHash,
		SchemeChanged:   schemeHash != entry.SchemeHash,
	}
}

// makeEntry builds the ledger entry for a just-written file. contentHash
// is the digest of the bytes on disk after any post-write formatting, so
// the next run compares against what the user actually sees.
func makeEntry(path string, tmpl *template.Template, schemeName, schemeHash, contentHash string) api.ManagedFile {
	return api.ManagedFile{
		Path:         path,
		Template:     tmpl.Name,
		Scheme:       schemeName,
		Hash:         contentHash,
		TemplateHash: ledger.Hash([]byte(tmpl.Source())),
		SchemeHash:   schemeHash,
	}
}
