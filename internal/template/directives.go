package template

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tessera-themes/tessera/internal/scheme"
)

// directivePrefix introduces per-template settings. Only a leading block
// of such lines is interpreted; once real content starts, `#|` means
// nothing.
const directivePrefix = "#|"

// Directives are per-template render settings parsed from the leading
// `#| key = value` block. Zero value is the default: hex colors, unicode
// text, no header.
type Directives struct {
	Colors scheme.ColorFormat
	Text   scheme.TextFormat

	// HeaderPrefix, when non-empty, is the comment leader used to emit a
	// generated-file header at the top of the output.
	HeaderPrefix string
}

// RenderConfig returns the color/text mode the template renders in.
func (d Directives) RenderConfig() scheme.RenderConfig {
	return scheme.RenderConfig{Colors: d.Colors, Text: d.Text}
}

// parseDirectives splits a template source into its directive block and
// the remaining body. Directive lines are stripped so they never reach
// the compiler; the body is what gets compiled and hashed.
func parseDirectives(source, name string, log *zap.Logger) (Directives, string, error) {
	var d Directives

	lines := strings.Split(source, "\n")
	body := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, directivePrefix) {
			break
		}
		body++

		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, directivePrefix))
		key, val, found := strings.Cut(rest, "=")
		if !found {
			return Directives{}, "", fmt.Errorf("incomplete directive in template `%s`: `%s`", name, trimmed)
		}
		if err := d.apply(strings.TrimSpace(key), strings.TrimSpace(val), name, log); err != nil {
			return Directives{}, "", err
		}
	}

	return d, trimBlankEdges(lines[body:]), nil
}

func (d *Directives) apply(key, val, name string, log *zap.Logger) error {
	switch key {
	case "colors":
		switch val {
		case "hex":
			d.Colors = scheme.ColorHex
		case "name":
			d.Colors = scheme.ColorName
		default:
			return fmt.Errorf("invalid value `%s` for directive `colors` in template `%s`: expected `hex` or `name`", val, name)
		}
	case "text":
		switch val {
		case "unicode":
			d.Text = scheme.TextUnicode
		case "ascii":
			d.Text = scheme.TextASCII
		default:
			return fmt.Errorf("invalid value `%s` for directive `text` in template `%s`: expected `unicode` or `ascii`", val, name)
		}
	case "header":
		if val == "" {
			return fmt.Errorf("empty value for directive `header` in template `%s`", name)
		}
		d.HeaderPrefix = val
	default:
		log.Debug("ignoring unknown directive",
			zap.String("directive", key),
			zap.String("value", val),
			zap.String("template", name))
	}
	return nil
}

// trimBlankEdges drops blank lines at both ends of the body and joins
// the rest. Stripping the directive block tends to leave a blank gap at
// the top that shouldn't appear in output.
func trimBlankEdges(lines []string) string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// MakeHeader builds the generated-file header for an output, or an empty
// string when the template doesn't request one.
func (d Directives) MakeHeader(templateName, upstreamFile string) string {
	if d.HeaderPrefix == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s generated by tessera from %s\n", d.HeaderPrefix, templateName)
	if upstreamFile != "" {
		fmt.Fprintf(&b, "%s %s\n", d.HeaderPrefix, upstreamFile)
	}
	b.WriteString("\n")
	return b.String()
}
