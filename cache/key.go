package cache

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// KeyPrefix namespaces every parse result in the backing store
const KeyPrefix = "parse:"

// trackingParams never change the product a URL points to
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"at", "__rr", "_openstat", "from", "ref",
}

// CanonicalURL strips tracking parameters, the fragment and trailing slashes
// so cosmetically different links to one product compare equal.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimRight(rawURL, "/")
	}

	if u.RawQuery != "" {
		query := u.Query()
		for _, param := range trackingParams {
			query.Del(param)
		}
		u.RawQuery = query.Encode()
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// Key returns the store key for rawURL
func Key(rawURL string) string {
	sum := md5.Sum([]byte(CanonicalURL(rawURL)))
	return KeyPrefix + hex.EncodeToString(sum[:])
}
