package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// Enabled reports whether highlighting is allowed by the environment.
func Enabled() bool {
	return os.Getenv("QVMDIS_NO_COLOR") == ""
}

// getListingStyle returns the listing style with fallbacks
func getListingStyle() *chroma.Style {
	candidates := []string{"qvm-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	// Try high-color first, then fallback
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Listing highlights a complete qvmdis listing. The input is returned unchanged when
// colors are disabled or highlighting fails.
func Listing(text string) (string, error) {
	if !Enabled() {
		return text, nil
	}

	iterator, err := QVMLexer.Tokenise(nil, text)
	if err != nil {
		return text, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getListingStyle(), iterator); err != nil {
		return text, err
	}
	return buf.String(), nil
}

// Line highlights a single listing line.
func Line(line string) string {
	out, err := Listing(line)
	if err != nil {
		return line
	}
	return strings.TrimSuffix(out, "\n")
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
