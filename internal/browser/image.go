package browser

import "strings"

var imageExts = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// IsImage reports whether name has an image extension. The match is case
// sensitive.
func IsImage(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	_, ok := imageExts[name[i+1:]]
	return ok
}

func filterImages(names []string) []string {
	images := make([]string, 0, len(names))
	for _, name := range names {
		if IsImage(name) {
			images = append(images, name)
		}
	}
	return images
}
