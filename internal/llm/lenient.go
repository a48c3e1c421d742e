package llm

import (
	"bytes"
	"regexp"
)

var reFence = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```$")

// StripCodeFences removes a markdown code fence around the payload and any
// chatter before the first JSON value or after the last one.
func StripCodeFences(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if m := reFence.FindSubmatch(raw); m != nil {
		raw = bytes.TrimSpace(m[1])
	}
	start := bytes.IndexAny(raw, "[{")
	if start < 0 {
		return raw
	}
	closer := byte('}')
	if raw[start] == '[' {
		closer = ']'
	}
	end := bytes.LastIndexByte(raw, closer)
	if end < start {
		return raw[start:]
	}
	return raw[start : end+1]
}
