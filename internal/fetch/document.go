package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// IsDocumentURL reports whether rawURL names a PDF by its path suffix.
func IsDocumentURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}

func isDocumentType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/pdf"
}

// DocumentReader downloads PDFs such as product brochures and returns their
// plain text.
type DocumentReader struct {
	client   *http.Client
	maxBytes int64
	maxChars int
}

// NewDocumentReader creates a DocumentReader. maxBytes bounds the download.
func NewDocumentReader(client *http.Client, maxBytes int64, maxChars int) *DocumentReader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &DocumentReader{client: client, maxBytes: maxBytes, maxChars: maxChars}
}

func (d *DocumentReader) Name() string { return SourceDocument }

// Supports reports whether targetURL looks like a PDF.
func (d *DocumentReader) Supports(targetURL string) bool { return IsDocumentURL(targetURL) }

// Fetch downloads targetURL and extracts its text. Documents carry no links.
func (d *DocumentReader) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: document create request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: document download")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: targetURL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: document read body")
	}
	if int64(len(data)) > d.maxBytes {
		return nil, eris.Errorf("fetch: document %s exceeds %d bytes", targetURL, d.maxBytes)
	}

	text, pages, err := PDFText(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPage
	}

	return &Page{
		URL:        targetURL,
		FinalURL:   resp.Request.URL.String(),
		Title:      path.Base(resp.Request.URL.Path) + fmt.Sprintf(" (%d pages)", pages),
		Markdown:   truncate(text, d.maxChars),
		StatusCode: resp.StatusCode,
		Source:     SourceDocument,
	}, nil
}

// PDFText extracts the plain text of every readable page.
func PDFText(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, eris.Wrap(err, "fetch: open pdf")
	}

	var b strings.Builder
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), n, nil
}
