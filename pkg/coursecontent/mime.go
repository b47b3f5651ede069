package coursecontent

import (
	"fmt"
	"strings"
)

// MaterialTypeFromMime classifies an upload by MIME type. Anything outside
// the recognized set is a rejected upload.
func MaterialTypeFromMime(mimeType string) (MaterialType, error) {
	switch {
	case mimeType == "application/pdf":
		return MaterialTypePDF, nil
	case strings.HasPrefix(mimeType, "video/"):
		return MaterialTypeVideo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
}
