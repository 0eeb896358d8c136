package seeds

import (
	"bufio"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// ReadText reads one URL per line. Blank lines and lines starting with #
// are skipped.
func ReadText(r io.Reader) ([]model.Company, error) {
	var out []model.Company
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, model.Company{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "seeds: read text")
	}
	return Normalize(out), nil
}
