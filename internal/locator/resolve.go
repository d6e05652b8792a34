package locator

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// PageURL returns the root page URL probed for a domain.
func PageURL(domain string) string {
	return (&url.URL{Scheme: "https", Host: domain, Path: "/"}).String()
}

// Resolve turns an attribute value into an absolute candidate URL.
//
// The reference is resolved against base, then lightly normalised so the same
// asset referenced in different spellings compares equal:
//   - Surrounding whitespace is trimmed
//   - Protocol-relative references ("//cdn/x.png") inherit base's scheme
//   - Scheme and host are lower-cased
//   - Default ports (http:80, https:443) are dropped
//   - The fragment is removed
//
// Path and query are kept verbatim since image hosts often sign them.
func Resolve(base *url.URL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("could not parse reference: %w", err)
	}
	u := base.ResolveReference(r)

	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Host)
	if h, port, err := net.SplitHostPort(host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			host = h
			if strings.Contains(h, ":") {
				host = "[" + h + "]"
			}
		}
	} // else: no explicit port
	u.Host = host

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}
