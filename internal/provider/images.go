package provider

import (
	"net/url"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// Social networks serve HTML pages, not images.
var blockedImageHosts = []string{
	"instagram.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"tiktok.com",
	"youtube.com",
	"linkedin.com",
	"pinterest.com",
}

var blockedImagePaths = []string{"/profile/", "/user/", "/account/", "placeholder"}

// ValidImageURL reports whether u looks like a direct image link.
func ValidImageURL(u string) bool {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	for _, h := range blockedImageHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return false
		}
	}

	path := strings.ToLower(parsed.Path)
	for _, p := range blockedImagePaths {
		if strings.Contains(path, p) {
			return false
		}
	}

	// Extensions may sit before a query string or inside a CDN path segment.
	full := path + "?" + strings.ToLower(parsed.RawQuery)
	for _, ext := range imageExtensions {
		if strings.Contains(full, ext) {
			return true
		}
	}
	return false
}

// FilterImages returns the valid URLs of in, preserving order. The result is
// never nil.
func FilterImages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if ValidImageURL(u) {
			out = append(out, u)
		}
	}
	return out
}
