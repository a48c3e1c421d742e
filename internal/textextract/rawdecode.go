package textextract

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

var (
	reReadableRun = regexp.MustCompile(`[\p{Latin}\p{N}][\p{Latin}\p{N} .,:;@'()/!?&+\-]{4,}`)
	reLatinWord   = regexp.MustCompile(`\p{Latin}{5,}`)
)

type candidateEncoding struct {
	name string
	enc  encoding.Encoding // nil means UTF-8 with invalid bytes dropped
}

var rawEncodings = []candidateEncoding{
	{name: "utf-8"},
	{name: "windows-1252", enc: charmap.Windows1252},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
	{name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{name: "utf-16be", enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

// rawDecode decodes the whole buffer under several encodings and keeps the
// one with the most readable alphabetic text.
type rawDecode struct{}

func (rawDecode) Name() constants.TextStrategy { return constants.StrategyRawDecode }

func (rawDecode) Extract(ctx context.Context, data []byte) ([]TextSpan, error) {
	bestScore := 0
	var best []string
	for _, ce := range rawEncodings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decoded := decodeAs(ce, data)
		runs, score := readableRuns(decoded)
		if score > bestScore {
			bestScore, best = score, runs
		}
	}
	if len(best) == 0 {
		return nil, nil
	}
	return []TextSpan{{Strategy: constants.StrategyRawDecode, Text: strings.Join(best, "\n")}}, nil
}

func decodeAs(ce candidateEncoding, data []byte) string {
	if ce.enc == nil {
		return strings.ToValidUTF8(string(data), " ")
	}
	out, err := ce.enc.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return string(out)
}

// readableRuns returns the substrings that contain at least one alphabetic
// run of five or more letters, and the total length of those runs.
func readableRuns(s string) ([]string, int) {
	var runs []string
	score := 0
	for _, run := range reReadableRun.FindAllString(s, -1) {
		words := reLatinWord.FindAllString(run, -1)
		if len(words) == 0 {
			continue
		}
		for _, w := range words {
			score += len([]rune(w))
		}
		runs = append(runs, strings.TrimSpace(run))
	}
	return runs, score
}
