package scraper

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	duplicateSchemeRe = regexp.MustCompile(`^(https?://)(https?://)+`)
)

// NormalizeURL repairs a user-supplied product URL. It returns "" when nothing
// usable is left.
func NormalizeURL(raw string) string {
	value := whitespaceRe.ReplaceAllString(raw, "")
	if value == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(value, "https:") && !strings.HasPrefix(value, "https://"):
		value = "https://" + strings.TrimLeft(strings.TrimPrefix(value, "https:"), "/")
	case strings.HasPrefix(value, "http:") && !strings.HasPrefix(value, "http://"):
		value = "http://" + strings.TrimLeft(strings.TrimPrefix(value, "http:"), "/")
	case strings.HasPrefix(value, "//"):
		value = "https:" + value
	case !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://"):
		value = "https://" + value
	}

	// A collapsed prefix can itself be malformed ("https://https:x"), so repeat
	// until stable to keep normalization idempotent.
	for {
		next := duplicateSchemeRe.ReplaceAllString(value, "$1")
		next = repairInnerScheme(next)
		if next == value {
			break
		}
		value = next
	}

	return value
}

// repairInnerScheme collapses "https://http:x" style leftovers into "https://x"
func repairInnerScheme(value string) string {
	for _, outer := range []string{"https://", "http://"} {
		if !strings.HasPrefix(value, outer) {
			continue
		}
		rest := value[len(outer):]
		for _, inner := range []string{"https:", "http:"} {
			if strings.HasPrefix(rest, inner) {
				return outer + strings.TrimLeft(rest[len(inner):], "/")
			}
		}
	}
	return value
}

// HostOf returns the lowercased hostname of rawURL without a leading "www."
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// HostMatches reports whether host equals one of domains or is a subdomain of one
func HostMatches(host string, domains []string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" {
		return false
	}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// resolveURL makes ref absolute against base; invalid refs are returned unchanged
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
