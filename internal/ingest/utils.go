package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// AllowedExt checks if a file extension is one the pipeline accepts.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// CourseFromPath derives a course name from a file name:
// "first_aid-2024.pdf" becomes "first aid 2024".
func CourseFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return strings.Join(strings.Fields(stem), " ")
}
