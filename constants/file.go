package constants

import (
	"bytes"
	"strings"
)

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the formats a source document may have.
var FileTypes = []string{PDF, IMAGE}

// AllowedExtensions holds the file extensions accepted for survey intake.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to PDF or IMAGE; "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "webp", "gif", "heic", "heif":
		return IMAGE
	}
	return ""
}

// MimeFromExt returns the content type used when sending a page image to a vision model.
func MimeFromExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "heic", "heif":
		return "image/heic"
	case "pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}

// SniffFormat inspects magic bytes; it is used when the file reference carries no extension.
func SniffFormat(b []byte) (format, ext string) {
	switch {
	case bytes.HasPrefix(b, []byte("%PDF-")):
		return PDF, "pdf"
	case bytes.HasPrefix(b, []byte{0x89, 'P', 'N', 'G'}):
		return IMAGE, "png"
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return IMAGE, "jpg"
	case bytes.HasPrefix(b, []byte("GIF8")):
		return IMAGE, "gif"
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return IMAGE, "webp"
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")) && isHEICBrand(b[8:12]):
		return IMAGE, "heic"
	}
	return "", ""
}

func isHEICBrand(b []byte) bool {
	switch string(b) {
	case "heic", "heix", "hevc", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}

// IsHEIC reports whether ext names a HEIC/HEIF photo.
func IsHEIC(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}
