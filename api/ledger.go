package api

// ManagedFile records one output file produced by rendering a template
// against a scheme. All hash fields are content digests tagged with the
// algorithm ("sha256:<hex>"), never timestamps.
type ManagedFile struct {
	// Path of the generated file, relative to the project root.
	Path string `json:"path"`
	// Template is the logical template name the file was rendered from.
	Template string `json:"template"`
	// Scheme is the scheme name the file was rendered with.
	Scheme string `json:"scheme"`
	// Hash of the exact bytes written.
	Hash string `json:"hash"`
	// TemplateHash of the template source the renderer evaluated.
	TemplateHash string `json:"template_hash"`
	// SchemeHash of the scheme's canonical serialization.
	SchemeHash string `json:"scheme_hash"`
}

// EntryPath implements ledger.Entry.
func (f ManagedFile) EntryPath() string { return f.Path }

// EntryHash implements ledger.Entry.
func (f ManagedFile) EntryHash() string { return f.Hash }
