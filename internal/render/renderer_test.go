package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// fakeRunner writes n page files the way pdftoppm names them.
type fakeRunner struct {
	pages int
	err   error
	args  []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	f.args = args
	if f.err != nil {
		return nil, []byte("Syntax Error: broken file"), f.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		name := fmt.Sprintf("%s-%d.png", prefix, i)
		if err := os.WriteFile(name, []byte("png-"+strconv.Itoa(i)), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestRender_PDFPagesInOrder(t *testing.T) {
	fr := &fakeRunner{pages: 12}
	r := New(Config{DPI: 150}, fr, nil)

	pages, err := r.Render(t.Context(), []byte("%PDF-1.4"), constants.PDF, "pdf")
	require.NoError(t, err)
	require.Len(t, pages, 12)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, "image/png", p.MimeType)
		assert.Equal(t, "png-"+strconv.Itoa(i+1), string(p.Data))
	}
	assert.Equal(t, []string{"-r", "150", "-png"}, fr.args[:3])
}

func TestRender_MaxPages(t *testing.T) {
	fr := &fakeRunner{pages: 3}
	r := New(Config{MaxPages: 2}, fr, nil)

	pages, err := r.Render(t.Context(), []byte("%PDF-1.4"), constants.PDF, "pdf")
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Contains(t, fr.args, "-l")
}

func TestRender_Errors(t *testing.T) {
	r := New(Config{}, &fakeRunner{err: errors.New("exit status 1")}, nil)
	_, err := r.Render(t.Context(), []byte("%PDF-1.4"), constants.PDF, "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Syntax Error")

	r = New(Config{}, &fakeRunner{pages: 0}, nil)
	_, err = r.Render(t.Context(), []byte("%PDF-1.4"), constants.PDF, "pdf")
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = r.Render(t.Context(), []byte("x"), "DOCX", "docx")
	assert.Error(t, err)
}

func TestRender_ImagePassThrough(t *testing.T) {
	r := New(Config{}, &fakeRunner{}, nil)
	pages, err := r.Render(t.Context(), []byte{0xFF, 0xD8, 0xFF}, constants.IMAGE, "jpeg")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "image/jpeg", pages[0].MimeType)
}

// heicRunner writes a PNG to the converter's output path, which is the last
// argument for every supported converter.
type heicRunner struct {
	name string
	args []string
	err  error
}

func (h *heicRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	h.name, h.args = name, args
	if h.err != nil {
		return nil, []byte("unsupported file"), h.err
	}
	return nil, nil, os.WriteFile(args[len(args)-1], []byte("png-from-heic"), 0o600)
}

func TestRender_HEICConverted(t *testing.T) {
	tests := []struct {
		converter string
		firstArg  string
	}{
		{"heif-convert", ""},
		{"magick", ""},
		{"sips", "-s"},
	}
	for _, tt := range tests {
		t.Run(tt.converter, func(t *testing.T) {
			hr := &heicRunner{}
			r := New(Config{HEICConverter: tt.converter}, hr, nil)
			pages, err := r.Render(t.Context(), []byte("....ftypheic"), constants.IMAGE, "HEIC")
			require.NoError(t, err)
			require.Len(t, pages, 1)
			assert.Equal(t, "image/png", pages[0].MimeType)
			assert.Equal(t, "png-from-heic", string(pages[0].Data))
			assert.Equal(t, tt.converter, hr.name)
			if tt.firstArg != "" {
				assert.Equal(t, tt.firstArg, hr.args[0])
			}
		})
	}
}

func TestRender_HEICErrors(t *testing.T) {
	r := New(Config{HEICConverter: "gimp"}, &heicRunner{}, nil)
	_, err := r.Render(t.Context(), []byte("x"), constants.IMAGE, "heic")
	assert.ErrorContains(t, err, "not supported")

	r = New(Config{}, &heicRunner{err: errors.New("exit status 1")}, nil)
	_, err = r.Render(t.Context(), []byte("x"), constants.IMAGE, "heif")
	assert.ErrorContains(t, err, "unsupported file")
}

func TestTruncate_CharacterBoundary(t *testing.T) {
	got := truncate("Erreur de syntaxe: fichier endommagé", 36)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Erreur de syntaxe: fichier endommag...(truncated)", got)
}
