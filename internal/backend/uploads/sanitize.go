package uploads

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidFilename is returned when nothing safe is left of a filename
var ErrInvalidFilename = errors.New("invalid filename")

// windowsDeviceNames cannot be used as filenames on Windows, whatever the extension
var windowsDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"LPT1": true, "LPT2": true, "LPT3": true,
}

// SanitizeFilename reduces name to ASCII letters, digits, '.', '-' and '_'.
// Path separators become word breaks so directory components cannot survive,
// runs of whitespace collapse to '_', and leading or trailing '.' and '_' are
// removed. "../../etc/passwd.png" becomes "etc_passwd.png".
func SanitizeFilename(name string) (string, error) {
	// Decompose accents so "é" keeps its base letter
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune(' ')
		case r > unicode.MaxASCII:
			// drop combining marks and anything else outside ASCII
		default:
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	joined := strings.Join(words, "_")

	var out strings.Builder
	for _, r := range joined {
		if isSafeRune(r) {
			out.WriteRune(r)
		}
	}

	safe := strings.Trim(out.String(), "._")
	if safe == "" {
		return "", ErrInvalidFilename
	}

	stem, _, _ := strings.Cut(safe, ".")
	if windowsDeviceNames[strings.ToUpper(stem)] {
		safe = "_" + safe
	}
	return safe, nil
}

func isSafeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '.' || r == '-' || r == '_'
}
