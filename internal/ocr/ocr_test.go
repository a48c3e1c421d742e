package ocr

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/internal/render"
)

// scriptRunner answers tesseract calls from the page file's contents.
type scriptRunner struct {
	calls [][]string
}

func (s *scriptRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, args)
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, err
	}
	body := string(data)
	if body == "broken" {
		return nil, []byte("Error in pixReadStream"), errors.New("exit status 1")
	}
	if args[len(args)-1] == "tsv" {
		return []byte(tsvFixture), nil, nil
	}
	return []byte(body + "\n_____\n"), nil, nil
}

const tsvFixture = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t40\t12\t90\tName:\n" +
	"5\t1\t1\t1\t1\t2\t55\t10\t40\t12\t70\tJane\n"

func pages(bodies ...string) []render.Page {
	out := make([]render.Page, len(bodies))
	for i, b := range bodies {
		out[i] = render.Page{Number: i + 1, MimeType: "image/png", Data: []byte(b)}
	}
	return out
}

func TestRecognize_JoinsPagesInOrder(t *testing.T) {
	r := &scriptRunner{}
	tess := New(Config{Lang: "eng", PSM: 6}, r, nil)

	res, err := tess.Recognize(context.Background(), pages("Name: Jane Doe\nQ1: 4", "Name: John Smith"))
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane Doe\nQ1: 4\n\nName: John Smith", res.Text)
	require.Len(t, res.Pages, 2)
	assert.Empty(t, res.Warnings)

	require.Len(t, r.calls, 2)
	assert.Equal(t, []string{"stdout", "-l", "eng", "--psm", "6"}, r.calls[0][1:])
	assert.True(t, strings.HasSuffix(r.calls[0][0], "page-1.png"))
}

func TestRecognize_SkipsBrokenPage(t *testing.T) {
	res, err := New(Config{}, &scriptRunner{}, nil).Recognize(context.Background(), pages("broken", "Comments: great"))
	require.NoError(t, err)
	assert.Equal(t, "Comments: great", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 1")
}

func TestRecognize_NoText(t *testing.T) {
	_, err := New(Config{}, &scriptRunner{}, nil).Recognize(context.Background(), pages("broken"))
	require.ErrorIs(t, err, ErrNoText)
}

func TestRecognize_Confidence(t *testing.T) {
	res, err := New(Config{Confidence: true}, &scriptRunner{}, nil).Recognize(context.Background(), pages("Name: Jane"))
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.InDelta(t, 0.8, res.Pages[0].Confidence, 1e-6)
}

func TestMeanConfidence(t *testing.T) {
	assert.InDelta(t, 0.8, MeanConfidence(tsvFixture), 1e-6)
	assert.Zero(t, MeanConfidence("level\tconf\n"))
	assert.Zero(t, MeanConfidence(""))
}

var _ render.Runner = (*scriptRunner)(nil)
