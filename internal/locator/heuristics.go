package locator

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Heuristic extracts one logo candidate from a parsed page. Match must not
// mutate the document; it returns the resolved absolute URL and true on a hit.
type Heuristic struct {
	Name  string
	Match func(doc *goquery.Document, base *url.URL) (string, bool)
}

var (
	// OpenGraphImage uses the content of the first og:image meta tag.
	OpenGraphImage = Heuristic{Name: "og:image", Match: matchOpenGraphImage}
	// IconLink uses the href of the first link whose rel mentions an icon or a logo.
	IconLink = Heuristic{Name: "link-icon", Match: matchIconLink}
	// LogoImage uses the src of the first img that looks like a logo.
	LogoImage = Heuristic{Name: "img-logo", Match: matchLogoImage}
)

// DefaultHeuristics returns the heuristics in priority order.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{OpenGraphImage, IconLink, LogoImage}
}

var (
	relKeywords = []string{"icon", "logo"}
	imgKeywords = []string{"logo", "brand", "nav-img"}
)

func matchOpenGraphImage(doc *goquery.Document, base *url.URL) (string, bool) {
	meta := doc.Find(`meta[property="og:image"]`).First()
	if meta.Length() == 0 {
		return "", false
	}

	return resolveAttr(meta, "content", base)
}

func matchIconLink(doc *goquery.Document, base *url.URL) (string, bool) {
	link := doc.Find("link[rel]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return containsAny(strings.ToLower(s.AttrOr("rel", "")), relKeywords)
	}).First()
	if link.Length() == 0 {
		return "", false
	}

	return resolveAttr(link, "href", base)
}

func matchLogoImage(doc *goquery.Document, base *url.URL) (string, bool) {
	var (
		out string
		ok  bool
	)
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.AttrOr("src", "")) == "" {
			return true
		}
		haystack := strings.ToLower(strings.Join([]string{
			s.AttrOr("src", ""),
			s.AttrOr("alt", ""),
			s.AttrOr("class", ""),
		}, " "))
		if !containsAny(haystack, imgKeywords) {
			return true
		}
		out, ok = resolveAttr(s, "src", base)

		return false
	})

	return out, ok
}

func resolveAttr(s *goquery.Selection, attr string, base *url.URL) (string, bool) {
	ref, exists := s.Attr(attr)
	if !exists {
		return "", false
	}
	u, err := Resolve(base, ref)
	if err != nil {
		return "", false
	}

	return u, true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}

	return false
}
