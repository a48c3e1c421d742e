package textextract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`[\t\f\v]+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=.*~]{3,}\s*$`)
)

// maxRepeat is the longest run of one repeated symbol or letter kept as-is.
const maxRepeat = 3

// Normalize strips non-printable characters, squeezes degenerate repeated
// characters, collapses whitespace and removes ruler lines. Line breaks are
// kept; more than one blank line collapses into one.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = stripNonPrintable(s)
	s = reBoxNoise.ReplaceAllString(s, "")
	s = squeezeRepeats(s)
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func stripNonPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r == utf8.RuneError:
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// squeezeRepeats turns runs like "!!!!!!" or "aaaaaa" into a single rune.
// Digits and whitespace are left alone.
func squeezeRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		r := runes[i]
		if n := j - i; n > maxRepeat && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(r)
			}
		}
		i = j
	}
	return b.String()
}

// hasLetter reports whether s contains at least one letter.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// mostlyPrintable rejects fragments that are dominated by symbols and noise.
func mostlyPrintable(s string) bool {
	total, good := 0, 0
	for _, r := range s {
		total++
		if r < 0x7F && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r)) {
			good++
		} else if unicode.Is(unicode.Latin, r) {
			good++
		}
	}
	return total > 0 && float64(good)/float64(total) >= 0.8
}
