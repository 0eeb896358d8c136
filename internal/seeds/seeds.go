// Package seeds reads batches of seed URLs from text, CSV and XLSX files.
package seeds

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/model"
)

// ReadFile reads seeds from path, choosing the format by extension: .csv,
// .xlsx, anything else as one URL per line.
func ReadFile(ctx context.Context, path string) ([]model.Company, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, "")
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "seeds: open csv")
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "seeds: open file")
		}
		defer f.Close() //nolint:errcheck
		return ReadText(f)
	}
}

// FromURLs builds seeds from raw URLs.
func FromURLs(raw []string) []model.Company {
	var out []model.Company
	for _, r := range raw {
		out = append(out, model.Company{URL: r})
	}
	return Normalize(out)
}

// Normalize rewrites every seed URL with NormalizeURL and drops invalid
// entries and repeats of the same site.
func Normalize(in []model.Company) []model.Company {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Company, 0, len(in))
	for _, c := range in {
		u, err := NormalizeURL(c.URL)
		if err != nil {
			zap.L().Warn("seeds: skipping invalid url", zap.String("url", c.URL), zap.Error(err))
			continue
		}
		key := fetch.CanonicalURL(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.URL = u
		c.Name = strings.TrimSpace(c.Name)
		out = append(out, c)
	}
	return out
}

// NormalizeURL returns raw as an absolute http(s) URL. A missing scheme
// defaults to https.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("seeds: empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrapf(err, "seeds: parse %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Errorf("seeds: unsupported scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !strings.Contains(host, ".") {
		return "", eris.Errorf("seeds: %q has no valid host", raw)
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	return u.String(), nil
}
