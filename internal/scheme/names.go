package scheme

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

const maxNameLength = 255

// Windows refuses these as file names regardless of extension, and scheme
// and swatch names end up in output paths.
var windowsReserved = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

func isReserved(name string) bool {
	base, _, _ := strings.Cut(name, ".")
	_, ok := windowsReserved[strings.ToUpper(base)]
	return ok
}

func isSafeRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_'
}

// normalizeName applies NFC normalization and validates that the result is
// a usable display name for the given context ("scheme", "swatch", ...).
func normalizeName(name, context string) (string, error) {
	normalized := norm.NFC.String(name)

	if normalized == "" {
		return "", fmt.Errorf("invalid %s name %q: empty", context, name)
	}
	for _, r := range normalized {
		if !isSafeRune(r) {
			return "", fmt.Errorf("invalid %s name %q: contains character that's not a unicode letter, number, `-` or `_`", context, name)
		}
	}
	if len(normalized) > maxNameLength {
		return "", fmt.Errorf("invalid %s name %q: too long (%d characters; max is %d)", context, name, len(normalized), maxNameLength)
	}
	if isReserved(normalized) {
		return "", fmt.Errorf("invalid %s name %q: uses reserved windows name", context, name)
	}

	return normalized, nil
}

// validateASCIIName checks an author-provided ascii name.
func validateASCIIName(name, context string) error {
	for _, r := range name {
		if r > unicode.MaxASCII {
			return fmt.Errorf("invalid %s ascii name %q: contains non-ascii character(s)", context, name)
		}
	}
	return nil
}

// asciiFallback transliterates a display name into a filesystem-safe ascii
// name. Runs of separators collapse to a single one; anything that
// transliterates to an unsupported character becomes `_`.
func asciiFallback(displayName, context string) (string, error) {
	translit := unidecode.Unidecode(displayName)

	var b strings.Builder
	lastWasSep := false
	for _, r := range translit {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			lastWasSep = false
			b.WriteRune(r)
		case r == '-' || r == '_':
			if !lastWasSep {
				lastWasSep = true
				b.WriteRune(r)
			}
		case r == ' ' || r == '/' || r == ':' || r == ',' || r == ';' || r == '|' || r == '+':
			if !lastWasSep {
				lastWasSep = true
				b.WriteRune('-')
			}
		default:
			if !lastWasSep {
				lastWasSep = true
				b.WriteRune('_')
			}
		}
	}

	ascii := strings.Trim(b.String(), "-_")
	if ascii == "" {
		return "", fmt.Errorf("invalid generated ascii fallback for %s %q: transliteration produced no valid filename characters", context, displayName)
	}
	if len(ascii) > maxNameLength {
		return "", fmt.Errorf("invalid generated ascii fallback %q for %s %q: too long (%d characters; max is %d)", ascii, context, displayName, len(ascii), maxNameLength)
	}
	if isReserved(ascii) {
		return "", fmt.Errorf("invalid generated ascii fallback %q for %s %q: uses reserved windows name", ascii, context, displayName)
	}
	if strings.HasSuffix(ascii, ".") {
		return "", fmt.Errorf("invalid generated ascii fallback %q for %s %q: ends with `.`", ascii, context, displayName)
	}

	return ascii, nil
}
