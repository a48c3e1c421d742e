// Package detect decides whether extracted text is usable or the document is
// effectively an image that needs visual processing.
package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reReadable   = regexp.MustCompile(`[A-Za-z]{2,}(?:[ \t]+[A-Za-z]{2,})*`)
	reEncoded    = regexp.MustCompile(`\bendstream\b|\bendobj\b|\b\d+\s+\d+\s+obj\b|/FlateDecode\b|/Filter\b|/XObject\b`)
	reActualWord = regexp.MustCompile(`\b[A-Za-z]{4,}\b`)
)

// Thresholds used by Analyze.
const (
	MinReadableRatio = 0.3
	MinActualWords   = 50
)

// syntaxWords are PDF object-model keywords; they never count as real words.
var syntaxWords = map[string]struct{}{
	"stream": {}, "endstream": {}, "endobj": {}, "xref": {}, "startxref": {}, "trailer": {},
	"filter": {}, "flatedecode": {}, "dctdecode": {}, "length": {}, "type": {}, "subtype": {},
	"font": {}, "xobject": {}, "image": {}, "page": {}, "pages": {}, "catalog": {}, "resources": {},
	"mediabox": {}, "contents": {}, "parent": {}, "kids": {}, "count": {}, "root": {}, "info": {},
	"width": {}, "height": {}, "bitspercomponent": {}, "colorspace": {}, "devicergb": {},
	"devicegray": {}, "producer": {}, "creator": {}, "procset": {}, "basefont": {}, "encoding": {},
}

// Report is the outcome of analysing extracted text.
type Report struct {
	ReadableRatio  float64 `json:"readable_ratio"`
	HasEncodedData bool    `json:"has_encoded_data"`
	ActualWords    int     `json:"actual_words"`
	HasActualWords bool    `json:"has_actual_words"`
	Scanned        bool    `json:"scanned"`
}

// Analyze classifies text as scanned when too little of it is readable, or
// when it still carries encoded-stream markers without enough real words.
// Empty text is scanned.
func Analyze(text string) Report {
	var r Report
	total := utf8.RuneCountInString(text)
	if total > 0 {
		readable := 0
		for _, m := range reReadable.FindAllString(text, -1) {
			readable += utf8.RuneCountInString(m)
		}
		r.ReadableRatio = float64(readable) / float64(total)
	}
	r.HasEncodedData = reEncoded.MatchString(text)
	for _, w := range reActualWord.FindAllString(text, -1) {
		if _, skip := syntaxWords[strings.ToLower(w)]; !skip {
			r.ActualWords++
		}
	}
	r.HasActualWords = r.ActualWords >= MinActualWords
	r.Scanned = r.ReadableRatio < MinReadableRatio || (r.HasEncodedData && !r.HasActualWords)
	return r
}

// IsScanned is a shorthand for Analyze(text).Scanned.
func IsScanned(text string) bool {
	return Analyze(text).Scanned
}
