package seeds

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// ReadCSV reads seeds from CSV. A header row naming a url or website
// column selects it; otherwise the first column holds the URL.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Company, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comment = '#'

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "seeds: csv cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "seeds: read csv row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		rows = append(rows, record)
	}
	return fromRows(rows), nil
}
