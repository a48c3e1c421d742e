package textextract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// surveyPatterns recognize survey vocabulary in otherwise unreadable bytes.
var surveyPatterns = []*regexp.Regexp{
	// labelled fields: "Name: Jane Doe", "E-mail - jane@x.com"
	regexp.MustCompile(`(?i)\b(?:participant(?:'s)?\s+)?(?:name|company|organi[sz]ation|e-?mail|phone|tel|mobile|date|course|trainer|instructor|signature)\s*[:\-]\s*[\p{Latin}\p{N} .,'@+()/_-]{1,80}`),
	regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	// numbered questions with an answer
	regexp.MustCompile(`(?i)\bQ(?:uestion)?\s*[1-9]\s*[.):\-]?\s*[\p{Latin} ,'/-]{0,80}?[:\-]?\s*\b[0-9]{1,2}\b`),
	regexp.MustCompile(`(?i)\b(?:strongly\s+agree|strongly\s+disagree|agree|disagree|neutral|excellent|very\s+good|good|fair|poor)\b`),
	regexp.MustCompile(`(?i)\brecommend\w*[^0-9\n]{0,60}?\b(?:10|[0-9])\b`),
	regexp.MustCompile(`(?i)\b(?:suggestions?|comments?|learn(?:ed|t)?|interest(?:ed)?|improve(?:ment)?s?)\b[\p{Latin}\p{N} ,.'?!:;/-]{0,200}`),
	// prose: four or more consecutive words
	regexp.MustCompile(`[A-Za-z][A-Za-z,.'!?;:-]*(?:[ \t]+[A-Za-z][A-Za-z,.'!?;:-]*){3,}`),
}

// patternScan decodes the file leniently and keeps only the regions that
// match known survey vocabulary, in document order.
type patternScan struct{}

func (patternScan) Name() constants.TextStrategy { return constants.StrategyPatternScan }

func (patternScan) Extract(_ context.Context, data []byte) ([]TextSpan, error) {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		decoded = []byte(strings.ToValidUTF8(string(data), " "))
	}
	text := string(decoded)

	var spans [][2]int
	for _, re := range surveyPatterns {
		for _, m := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
	}
	if len(spans) == 0 {
		return nil, nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var parts []string
	cur := spans[0]
	for _, s := range spans[1:] {
		if s[0] <= cur[1] {
			if s[1] > cur[1] {
				cur[1] = s[1]
			}
			continue
		}
		parts = appendPart(parts, text[cur[0]:cur[1]])
		cur = s
	}
	parts = appendPart(parts, text[cur[0]:cur[1]])
	if len(parts) == 0 {
		return nil, nil
	}
	return []TextSpan{{Strategy: constants.StrategyPatternScan, Text: strings.Join(parts, "\n")}}, nil
}

func appendPart(parts []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || !hasLetter(s) {
		return parts
	}
	return append(parts, s)
}
