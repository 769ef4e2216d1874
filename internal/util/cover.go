package util

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
)

// MediaSessionCover returns the largest artwork published in meta. When no
// artwork declares a size, the last entry wins, since pages list artwork
// smallest first.
func MediaSessionCover(meta *dom.MediaMetadata) string {
	if meta == nil || len(meta.Artwork) == 0 {
		return ""
	}
	best, bestSize := "", 0
	for _, art := range meta.Artwork {
		if art.Src == "" {
			continue
		}
		if size := artworkHeight(art.Sizes); size > bestSize {
			best, bestSize = art.Src, size
		}
	}
	if best != "" {
		return best
	}
	for i := len(meta.Artwork) - 1; i >= 0; i-- {
		if meta.Artwork[i].Src != "" {
			return meta.Artwork[i].Src
		}
	}
	return ""
}

// artworkHeight parses a sizes attribute such as "96x96 512x512" and returns
// the largest height it names.
func artworkHeight(sizes string) int {
	largest := 0
	for _, size := range strings.Fields(strings.ToLower(sizes)) {
		_, h, ok := strings.Cut(size, "x")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(h); err == nil && n > largest {
			largest = n
		}
	}
	return largest
}

// ResolveURL returns ref unchanged when it is already absolute and otherwise
// resolves it against the page location.
func ResolveURL(location *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http") || location == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return location.ResolveReference(parsed).String()
}
