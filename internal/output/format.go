// Package output contains post-write concerns: formatting generated
// files and resolving the upstream URLs they will live at.
package output

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"
	"github.com/ohler55/ojg/pretty"
	"go.uber.org/zap"
	"mvdan.cc/gofumpt/format"
)

// Formatter rewrites generated files into canonical form, dispatching on
// extension. Unknown extensions are left untouched. Formatting is
// idempotent: formatting a formatted file writes nothing.
type Formatter struct {
	fs  billy.Filesystem
	log *zap.Logger
}

func NewFormatter(fs billy.Filesystem, log *zap.Logger) *Formatter {
	return &Formatter{fs: fs, log: log}
}

// Format rewrites path in place if its format has a canonical form.
func (f *Formatter) Format(path string) error {
	var fn func([]byte) ([]byte, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		fn = formatJSON
	case ".xml", ".svg":
		fn = formatXML
	case ".go":
		fn = formatGo
	default:
		return nil
	}

	content, err := util.ReadFile(f.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read file `%s` for formatting: %w", path, err)
	}

	formatted, err := fn(content)
	if err != nil {
		return fmt.Errorf("failed to format file `%s`: %w", path, err)
	}

	if bytes.Equal(formatted, content) {
		f.log.Debug("formatting unnecessary", zap.String("path", path))
		return nil
	}
	if err := util.WriteFile(f.fs, path, formatted, 0o644); err != nil {
		return fmt.Errorf("failed to write formatted file `%s`: %w", path, err)
	}
	f.log.Info("formatted file", zap.String("path", path))
	return nil
}

func formatJSON(content []byte) ([]byte, error) {
	val, err := oj.Parse(content)
	if err != nil {
		return nil, err
	}
	return []byte(pretty.JSON(val, 80.2) + "\n"), nil
}

func formatGo(content []byte) ([]byte, error) {
	return format.Source(content, format.Options{})
}

// formatXML reindents by replaying the token stream. Whitespace-only text
// nodes are dropped so the pass is idempotent.
func formatXML(content []byte) ([]byte, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var buf bytes.Buffer
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if char, ok := tok.(xml.CharData); ok && len(bytes.TrimSpace(char)) == 0 {
			continue
		}
		if err := encoder.EncodeToken(tok); err != nil {
			return nil, err
		}
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
