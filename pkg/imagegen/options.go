package imagegen

import "slices"

const (
	DefaultAspectRatio = "1:1"
	DefaultResolution  = "1K"
)

var (
	AspectRatios = []string{"1:1", "2:3", "3:2", "3:4", "4:3", "4:5", "5:4", "9:16", "16:9", "21:9"}
	Resolutions  = []string{"1K", "2K", "4K"}
)

// ResolveAspectRatio falls back to 1:1 for anything outside AspectRatios.
func ResolveAspectRatio(v string) string {
	if slices.Contains(AspectRatios, v) {
		return v
	}
	return DefaultAspectRatio
}

// ResolveResolution falls back to 1K for anything outside Resolutions.
func ResolveResolution(v string) string {
	if slices.Contains(Resolutions, v) {
		return v
	}
	return DefaultResolution
}
