package richtext

import (
	"fmt"
	"strings"
)

const imageCDNBase = "https://cdn.sanity.io/images"

// ImageURL maps an asset ref of the form image-<id>-<w>x<h>-<ext> to its CDN URL.
// It returns "" for refs that do not follow that shape.
func ImageURL(projectID, dataset, ref string) string {
	if projectID == "" || dataset == "" {
		return ""
	}
	if !strings.HasPrefix(ref, "image-") {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(ref, "image-"), "-")
	if len(parts) < 3 {
		return ""
	}
	ext := parts[len(parts)-1]
	dims := parts[len(parts)-2]
	id := strings.Join(parts[:len(parts)-2], "-")
	if id == "" || ext == "" || !isDimensions(dims) {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/%s-%s.%s", imageCDNBase, projectID, dataset, id, dims, ext)
}

func isDimensions(s string) bool {
	w, h, ok := strings.Cut(s, "x")
	return ok && isDigits(w) && isDigits(h)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
