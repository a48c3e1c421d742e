package llm

import (
	"encoding/base64"
	"net/http"
)

// DataURL encodes an image as a data: URL for an image_url message part.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
