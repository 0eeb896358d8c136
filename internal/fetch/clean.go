package fetch

import (
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// noiseSelectors are removed before main-content detection.
const noiseSelectors = "script, style, noscript, template, svg, iframe, canvas, form, nav, [aria-hidden=true], .cookie-banner, #cookie-banner"

// minReadableChars is the readability result size below which the whole
// body is used instead.
const minReadableChars = 200

var blankLines = regexp.MustCompile(`\n{3,}`)

// Cleaned is the readable form of an HTML page.
type Cleaned struct {
	Title    string
	Markdown string

	links []model.LinkCandidate
}

// Clean prunes boilerplate from rawHTML and renders the remaining main
// content as markdown, truncated to maxChars when maxChars > 0. Contact
// links (mailto:, tel:) are kept in a trailing section because sites often
// list them only in headers and footers.
func Clean(rawHTML string, pageURL *url.URL, maxChars int) (*Cleaned, error) {
	if pageURL == nil {
		return nil, eris.New("fetch: clean requires a page url")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse html")
	}

	out := &Cleaned{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		links: collectLinks(doc, pageURL),
	}
	contacts := contactLinks(doc)

	doc.Find(noiseSelectors).Remove()
	pruned, err := doc.Html()
	if err != nil {
		return nil, eris.Wrap(err, "fetch: render pruned html")
	}

	content := pruned
	article, rerr := readability.FromReader(strings.NewReader(pruned), pageURL)
	if rerr == nil && len(strings.TrimSpace(article.TextContent)) >= minReadableChars {
		content = article.Content
		if out.Title == "" {
			out.Title = article.Title
		}
	} else if body, berr := doc.Find("body").Html(); berr == nil && body != "" {
		content = body
	}

	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: convert to markdown")
	}
	md = blankLines.ReplaceAllString(strings.TrimSpace(md), "\n\n")

	if len(contacts) > 0 {
		md += "\n\n## Contact links\n\n" + strings.Join(contacts, "\n")
	}
	out.Markdown = truncate(md, maxChars)
	return out, nil
}

func contactLinks(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var out []string
	doc.Find(`a[href^="mailto:"], a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if i := strings.Index(href, "?"); i > 0 {
			href = href[:i]
		}
		if _, ok := seen[strings.ToLower(href)]; ok || href == "mailto:" || href == "tel:" {
			return
		}
		seen[strings.ToLower(href)] = struct{}{}
		out = append(out, "- "+href)
	})
	return out
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
