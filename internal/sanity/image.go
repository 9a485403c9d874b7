package sanity

import (
	"fmt"
	"strings"
)

// ImageBuilder resolves asset references to image CDN URLs.
type ImageBuilder struct {
	projectID string
	dataset   string
}

// NewImageBuilder returns a builder for the given project and dataset.
func NewImageBuilder(projectID, dataset string) *ImageBuilder {
	return &ImageBuilder{projectID: projectID, dataset: dataset}
}

// URLFor resolves an asset reference of the form
// "image-<assetId>-<width>x<height>-<format>" to a CDN URL cropped to
// the requested dimensions. Width/height values <= 0 are omitted.
// Invalid or empty references yield "" so callers can substitute a
// placeholder instead of emitting a broken link.
func (b *ImageBuilder) URLFor(ref string, width, height int) string {
	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" {
		return ""
	}
	assetID, dims, format := parts[1], parts[2], parts[3]
	if assetID == "" || !strings.Contains(dims, "x") {
		return ""
	}

	u := fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s-%s.%s",
		b.projectID, b.dataset, assetID, dims, format)

	query := make([]string, 0, 3)
	if width > 0 {
		query = append(query, fmt.Sprintf("w=%d", width))
	}
	if height > 0 {
		query = append(query, fmt.Sprintf("h=%d", height))
	}
	if len(query) > 0 {
		query = append(query, "fit=crop")
		u += "?" + strings.Join(query, "&")
	}
	return u
}
