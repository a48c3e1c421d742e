package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
)

// ErrTooLarge means the source exceeded the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Document is a fetched source file.
type Document struct {
	Ref    string
	Name   string // base name, no directory
	Ext    string // lowercase, no dot
	Format string // constants.PDF or constants.IMAGE
	Data   []byte
}

// Source reads bytes for one URI scheme.
type Source interface {
	Get(ctx context.Context, ref *url.URL, maxBytes int64) ([]byte, error)
	Scheme() string
}

// Fetcher dispatches a file reference to the source registered for its
// scheme. Bare paths and file:// go to the local source.
type Fetcher struct {
	sources  map[string]Source
	maxBytes int64
	log      *slog.Logger
}

type Option func(*Fetcher)

func WithSource(s Source) Option {
	return func(f *Fetcher) { f.sources[s.Scheme()] = s }
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		sources:  map[string]Source{},
		maxBytes: 50 << 20,
		log:      slog.Default(),
	}
	WithSource(LocalSource{})(f)
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch loads ref and classifies it as PDF or image. Every failure is an
// AppError with code FETCH_ERROR wrapping ErrFetch; a missing file also
// matches common.ErrNotFound.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Document, error) {
	u, err := parseRef(ref)
	if err != nil {
		return nil, fetchErr(ref, err)
	}
	src, ok := f.sources[u.Scheme]
	if !ok {
		return nil, fetchErr(ref, fmt.Errorf("no source for scheme %q", u.Scheme))
	}

	data, err := src.Get(ctx, u, f.maxBytes)
	if err != nil {
		f.log.Warn("storage.fetch.failed", "ref", ref, "scheme", u.Scheme, "error", err)
		return nil, fetchErr(ref, err)
	}
	if len(data) == 0 {
		return nil, fetchErr(ref, errors.New("empty file"))
	}

	doc := &Document{Ref: ref, Data: data}
	doc.Name = path.Base(u.Path)
	doc.Ext = constants.NormalizeExt(path.Ext(u.Path))
	doc.Format = constants.MapExtToFormat(doc.Ext)
	if sniffed, ext := constants.SniffFormat(data); sniffed != "" && (doc.Format == "" || sniffed != doc.Format) {
		doc.Format, doc.Ext = sniffed, ext
	}
	if doc.Format == "" {
		return nil, fetchErr(ref, fmt.Errorf("unsupported file type %q", doc.Ext))
	}

	f.log.Debug("storage.fetch.ok", "ref", ref, "bytes", len(data), "format", doc.Format)
	return doc, nil
}

func fetchErr(ref string, cause error) error {
	return common.NewAppError(common.CodeFetch, "fetch "+ref, errors.Join(common.ErrFetch, cause))
}

func parseRef(ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty file reference")
	}
	// Windows drive letters and plain paths parse oddly as URLs.
	if !strings.Contains(ref, "://") {
		return &url.URL{Scheme: "file", Path: filepath.ToSlash(ref)}, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}
