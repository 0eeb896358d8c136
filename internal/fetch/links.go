package fetch

import (
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/profile-cli/internal/model"
)

// collectLinks resolves every anchor on the page against base. Scripts,
// mail and phone links and pure fragments are dropped.
func collectLinks(doc *goquery.Document, base *url.URL) []model.LinkCandidate {
	var out []model.LinkCandidate
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := ref
		if base != nil {
			abs = base.ResolveReference(ref)
		}
		out = append(out, model.LinkCandidate{URL: abs.String(), Text: strings.Join(strings.Fields(s.Text()), " ")})
	})
	return out
}

// LinkFilter turns raw page links into link candidates: absolute same-site
// http(s) URLs without fragments, de-duplicated, excluding the page itself
// and excluded paths, capped at Max.
type LinkFilter struct {
	Matcher *PathMatcher
	Max     int
}

// Filter applies the filter to links found on a page. The first of
// pageURLs decides the site; every one of them is dropped as a self link.
func (f LinkFilter) Filter(links []model.LinkCandidate, pageURLs ...string) []model.LinkCandidate {
	if len(pageURLs) == 0 {
		return nil
	}
	base, err := url.Parse(pageURLs[0])
	if err != nil || base.Host == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(links)+len(pageURLs))
	for _, p := range pageURLs {
		seen[CanonicalURL(p)] = struct{}{}
	}
	var out []model.LinkCandidate
	for _, l := range links {
		u, err := url.Parse(l.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if !SameSite(base.Host, u.Host) {
			continue
		}
		u.Fragment = ""
		u.RawFragment = ""
		key := CanonicalURL(u.String())
		if _, ok := seen[key]; ok {
			continue
		}
		if f.Matcher.IsExcluded(u.String()) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, model.LinkCandidate{URL: u.String(), Text: l.Text})
		if f.Max > 0 && len(out) >= f.Max {
			break
		}
	}
	return out
}

// SameSite reports whether two hosts belong to the same site, ignoring a
// leading "www." and letter case.
func SameSite(a, b string) bool {
	return bareHost(a) == bareHost(b)
}

func bareHost(h string) string {
	h = strings.ToLower(h)
	if host, port, ok := strings.Cut(h, ":"); ok && (port == "80" || port == "443") {
		h = host
	}
	return strings.TrimPrefix(h, "www.")
}

// CanonicalURL returns a comparison key for rawURL: lower-cased bare host,
// no fragment, no trailing slash. It is not a fetchable URL.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.Host = bareHost(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

func sortLinks(links []model.LinkCandidate) []model.LinkCandidate {
	slices.SortFunc(links, func(a, b model.LinkCandidate) int {
		return strings.Compare(a.URL, b.URL)
	})
	return links
}
