package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
)

// LocalSource reads bare paths and file:// URLs.
type LocalSource struct{}

func (LocalSource) Scheme() string { return "file" }

func (LocalSource) Get(_ context.Context, ref *url.URL, maxBytes int64) ([]byte, error) {
	p := filepath.FromSlash(ref.Path)
	if ref.Host != "" && ref.Host != "localhost" {
		p = filepath.Join(ref.Host, p)
	}
	fh, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, common.ErrNotFound)
		}
		return nil, err
	}
	defer fh.Close()
	return readLimited(fh, maxBytes)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > maxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}
