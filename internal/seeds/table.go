package seeds

import (
	"slices"
	"strings"

	"github.com/sells-group/profile-cli/internal/model"
)

var (
	urlHeaders  = []string{"url", "website", "website_link", "website link", "site", "domain"}
	nameHeaders = []string{"name", "company", "company_name", "company name"}
)

// columns locates the URL and name columns in a header row. ok is false
// when the row is not a header, in which case the first column is the URL.
func columns(header []string) (urlCol, nameCol int, ok bool) {
	urlCol, nameCol = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case urlCol < 0 && slices.Contains(urlHeaders, h):
			urlCol = i
		case nameCol < 0 && slices.Contains(nameHeaders, h):
			nameCol = i
		}
	}
	if urlCol < 0 {
		return 0, -1, false
	}
	return urlCol, nameCol, true
}

// fromRows converts table rows to seeds, detecting a header row.
func fromRows(rows [][]string) []model.Company {
	if len(rows) == 0 {
		return nil
	}
	urlCol, nameCol, hasHeader := columns(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	var out []model.Company
	for _, row := range rows {
		if urlCol >= len(row) || strings.TrimSpace(row[urlCol]) == "" {
			continue
		}
		c := model.Company{URL: row[urlCol]}
		if nameCol >= 0 && nameCol < len(row) {
			c.Name = row[nameCol]
		}
		out = append(out, c)
	}
	return Normalize(out)
}
