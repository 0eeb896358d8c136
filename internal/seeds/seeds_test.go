package seeds

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/profile-cli/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "seeds.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func urls(companies []model.Company) []string {
	out := make([]string, len(companies))
	for i, c := range companies {
		out[i] = c.URL
	}
	return out
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "acme.com", want: "https://acme.com"},
		{in: "  HTTPS://WWW.Acme.com/about  ", want: "https://www.acme.com/about"},
		{in: "http://acme.com:8080/x#frag", want: "http://acme.com:8080/x"},
		{in: "https://user:pw@acme.com", want: "https://acme.com"},
		{in: "", wantErr: true},
		{in: "localhost", wantErr: true},
		{in: "ftp://acme.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_DedupsSameSite(t *testing.T) {
	got := Normalize([]model.Company{
		{URL: "acme.com", Name: " Acme "},
		{URL: "https://www.acme.com/"},
		{URL: "not a url"},
		{URL: "globex.com"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "https://acme.com", got[0].URL)
	assert.Equal(t, "Acme", got[0].Name)
	assert.Equal(t, "https://globex.com", got[1].URL)
}

func TestFromURLs(t *testing.T) {
	got := FromURLs([]string{"acme.com", "acme.com", "globex.com"})
	assert.Equal(t, []string{"https://acme.com", "https://globex.com"}, urls(got))
}

func TestReadText(t *testing.T) {
	in := "# seeds\nacme.com\n\n  globex.com  \n# initech.com\n"
	got, err := ReadText(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com", "https://globex.com"}, urls(got))
}

func TestReadCSV_HeaderColumns(t *testing.T) {
	in := "Company Name,Website,Owner\nAcme,acme.com,alice\nGlobex,globex.com,bob\n"
	got, err := ReadCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Company{URL: "https://acme.com", Name: "Acme"}, got[0])
	assert.Equal(t, model.Company{URL: "https://globex.com", Name: "Globex"}, got[1])
}

func TestReadCSV_NoHeader(t *testing.T) {
	in := "acme.com,Acme\nglobex.com\n"
	got, err := ReadCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com", "https://globex.com"}, urls(got))
	assert.Empty(t, got[0].Name)
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("acme.com\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {
			{"Name", "URL"},
			{"Acme", "acme.com"},
			{"Blank", ""},
			{"Globex", "https://globex.com"},
		},
	})

	got, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Company{URL: "https://acme.com", Name: "Acme"}, got[0])
	assert.Equal(t, "Globex", got[1].Name)
}

func TestReadXLSX_NamedSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {{"acme.com"}},
	})

	got, err := ReadXLSX(path, "Leads")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com"}, urls(got))

	_, err = ReadXLSX(path, "Missing")
	assert.ErrorContains(t, err, "not found")
}

func TestReadFile_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "seeds.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("website\nacme.com\n"), 0o600))
	txtPath := filepath.Join(dir, "seeds.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("globex.com\n"), 0o600))
	xlsxPath := createTestXLSX(t, map[string][][]string{"Sheet1": {{"initech.com"}}})

	ctx := context.Background()
	for path, want := range map[string]string{
		csvPath:  "https://acme.com",
		txtPath:  "https://globex.com",
		xlsxPath: "https://initech.com",
	} {
		got, err := ReadFile(ctx, path)
		require.NoError(t, err, path)
		assert.Equal(t, []string{want}, urls(got), path)
	}

	_, err := ReadFile(ctx, filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
