package images

import (
	"path"
	"strings"

	"github.com/floorly/catalog-enricher/internal/models"
)

// noiseTokens mark URLs that are site chrome rather than product imagery.
var noiseTokens = []string{"logo", "icon"}

// lifestyleTokens mark URLs whose filename suggests a room or scene shot.
var lifestyleTokens = []string{"room", "scene", "lifestyle", "interior", "ambient"}

// Dedupe removes duplicate URLs while preserving first-seen order.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var unique []string

	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		unique = append(unique, u)
	}

	return unique
}

// FilterNoise drops URLs that contain logo or icon tokens.
func FilterNoise(urls []string) []string {
	var kept []string

	for _, u := range urls {
		lower := strings.ToLower(u)
		noisy := false
		for _, token := range noiseTokens {
			if strings.Contains(lower, token) {
				noisy = true
				break
			}
		}
		if !noisy {
			kept = append(kept, u)
		}
	}

	return kept
}

// IsLifestyle reports whether a URL looks like a room or scene shot.
func IsLifestyle(url string) bool {
	lower := strings.ToLower(url)
	for _, token := range lifestyleTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// PreferProductShot reorders URLs so that plain product shots come before
// lifestyle imagery, keeping relative order within each class stable. The
// first URL after reordering becomes the primary asset.
func PreferProductShot(urls []string, productName string) []string {
	if len(urls) < 2 {
		return urls
	}

	var shots, rest []string
	for _, u := range urls {
		if IsLifestyle(u) {
			rest = append(rest, u)
		} else {
			shots = append(shots, u)
		}
	}

	return append(shots, rest...)
}

// ClassifyAsset assigns the media asset type for the image at the given
// position: index 0 is primary, lifestyle-looking URLs are lifestyle,
// everything else is alternate.
func ClassifyAsset(url string, index int) models.MediaAssetType {
	if index == 0 {
		return models.AssetPrimary
	}
	if IsLifestyle(url) {
		return models.AssetLifestyle
	}
	return models.AssetAlternate
}

// ResolveExtension returns the lowercase image extension of a URL without the
// leading dot, defaulting to jpg when none is present.
func ResolveExtension(url string) string {
	clean := url
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(clean)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
