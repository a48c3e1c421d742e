package textextract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestNormalize(t *testing.T) {
	in := "Name:\t\tJane   Doe\r\n\r\n\r\n\r\nComments: great!!!!!!!\x00\x07\n__________\nScore 10000"
	got := Normalize(in)

	assert.Equal(t, "Name: Jane Doe\n\nComments: great!\n\nScore 10000", got)
	assert.Equal(t, got, Normalize(got))
	assert.Empty(t, Normalize(""))
}

func TestShowText(t *testing.T) {
	block := []byte(" /F1 12 Tf 72 712 Td (Name: Jane Doe) Tj 0 -14 Td [(Com)-20(pany)-250(Acme)] TJ ")
	assert.Equal(t, []string{"Name: Jane Doe", "Company Acme"}, showText(block))
}

func TestReadLiteral(t *testing.T) {
	b := []byte(`(a\(b\)c \101 \\ (nested)) Tj`)
	s, next := readLiteral(b, 0)
	assert.Equal(t, `a(b)c A \ (nested)`, s)
	assert.Equal(t, " Tj", string(b[next:]))
}

func TestScanTextObjects_DropsNonAlphabetic(t *testing.T) {
	content := []byte("BT (12345) Tj T* (Overall rating: Excellent) Tj ET BT (----) Tj ET")
	assert.Equal(t, []string{"Overall rating: Excellent"}, scanTextObjects(content))
}

func TestRawDecode_PicksUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	body, err := enc.Bytes([]byte("Participant feedback: Excellent training session"))
	require.NoError(t, err)
	data := append([]byte{0x00, 0x00}, body...)

	spans, err := rawDecode{}.Extract(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Text, "Participant feedback")
	assert.Contains(t, spans[0].Text, "Excellent training session")
}

func TestRawDecode_NothingReadable(t *testing.T) {
	spans, err := rawDecode{}.Extract(context.Background(), []byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestPatternScan(t *testing.T) {
	data := []byte{0x00, 0x9F, 0xFF, 0x01}
	data = append(data, []byte("Name: Jane Doe\n")...)
	data = append(data, 0x02, 0x03, 0xFE)
	data = append(data, []byte("Email: jane@x.com\n")...)
	data = append(data, 0x04, 0x05)

	spans, err := patternScan{}.Extract(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Text, "Name: Jane Doe")
	assert.Contains(t, spans[0].Text, "jane@x.com")
}

func TestPatternScan_MergesOverlappingMatches(t *testing.T) {
	data := []byte{0x00, 0x01}
	data = append(data, []byte("Email: jane@x.com")...)
	data = append(data, 0x00, 0x01, 0x02)
	data = append(data, []byte("Q3: 4")...)
	data = append(data, 0x00)

	spans, err := patternScan{}.Extract(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	text := spans[0].Text
	assert.Equal(t, 1, strings.Count(text, "jane@x.com"))
	require.Contains(t, text, "Q3: 4")
	assert.Less(t, strings.Index(text, "Email"), strings.Index(text, "Q3: 4"))
}
