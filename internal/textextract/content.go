package textextract

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var reTextObject = regexp.MustCompile(`(?s)\bBT\b(.*?)\bET\b`)

// kernSpace is the TJ displacement (thousandths of an em) treated as a word gap.
const kernSpace = -150

// scanTextObjects walks every BT...ET block of a content stream and returns
// the shown strings, one fragment per text line. Fragments without a letter
// or dominated by noise are discarded.
func scanTextObjects(content []byte) []string {
	var out []string
	for _, m := range reTextObject.FindAllSubmatch(content, -1) {
		for _, frag := range showText(m[1]) {
			if hasLetter(frag) && mostlyPrintable(frag) {
				out = append(out, frag)
			}
		}
	}
	return out
}

// showText interprets the text-showing operators of one text object.
func showText(block []byte) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	inArray := false
	for i := 0; i < len(block); {
		c := block[i]
		switch {
		case c == '(':
			s, next := readLiteral(block, i)
			cur.WriteString(s)
			i = next
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case c == '%':
			for i < len(block) && block[i] != '\n' && block[i] != '\r' {
				i++
			}
		case inArray && (c == '-' || c == '.' || isDigit(c)):
			j := i + 1
			for j < len(block) && (block[j] == '.' || isDigit(block[j])) {
				j++
			}
			if n, err := strconv.ParseFloat(string(block[i:j]), 64); err == nil && n <= kernSpace {
				cur.WriteByte(' ')
			}
			i = j
		case isOperatorByte(c):
			j := i + 1
			for j < len(block) && isOperatorByte(block[j]) {
				j++
			}
			switch string(block[i:j]) {
			case "Td", "TD", "T*", "Tm", "'", `"`:
				flush()
			case "Tj", "TJ":
				cur.WriteByte(' ')
			}
			i = j
		default:
			i++
		}
	}
	flush()
	return lines
}

// readLiteral decodes the PDF string literal starting at b[start] == '('.
// It returns the decoded text and the index just past the closing paren.
func readLiteral(b []byte, start int) (string, int) {
	var out []byte
	depth := 0
	i := start
	for i < len(b) {
		c := b[i]
		switch c {
		case '\\':
			i++
			if i >= len(b) {
				break
			}
			e := b[i]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b', 'f':
				out = append(out, ' ')
			case '\r':
				if i+1 < len(b) && b[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					j := i
					for j < len(b) && j < i+3 && b[j] >= '0' && b[j] <= '7' {
						j++
					}
					v, _ := strconv.ParseUint(string(b[i:j]), 8, 8)
					out = append(out, byte(v))
					i = j - 1
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			if depth > 1 {
				out = append(out, c)
			}
		case ')':
			depth--
			if depth == 0 {
				return decodePDFString(out), i + 1
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
		i++
	}
	return decodePDFString(out), i
}

// decodePDFString maps literal bytes to text: UTF-16BE when the BOM is
// present, otherwise Windows-1252 as the closest match to PDFDocEncoding.
func decodePDFString(raw []byte) string {
	if bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if s, err := dec.Bytes(raw); err == nil {
			return string(s)
		}
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isOperatorByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '*' || c == '\'' || c == '"'
}
