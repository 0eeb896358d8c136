package model

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupCap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    []string
		limit int
		want  []string
	}{
		{"nil", nil, 20, nil},
		{"blanks dropped", []string{"", "  ", "Acme"}, 20, []string{"Acme"}},
		{"case-insensitive first wins", []string{"Cloud Migration", "cloud migration", "CLOUD  MIGRATION"}, 20, []string{"Cloud Migration"}},
		{"whitespace collapsed", []string{"  Managed   Services "}, 20, []string{"Managed Services"}},
		{"capped", []string{"a", "b", "c", "d"}, 2, []string{"a", "b"}},
		{"all blank", []string{" "}, 20, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DedupCap(tt.in, tt.limit))
		})
	}
}

func TestCompanyProfile_Normalize(t *testing.T) {
	t.Parallel()

	var products []string
	for i := 0; i < 30; i++ {
		products = append(products, fmt.Sprintf("Product %d", i))
	}
	products = append(products, "product 0")

	p := CompanyProfile{
		Name:     "  Acme Corp ",
		Products: products,
		OEMPartnershipStatus: []OEMPartnership{
			{OEM: "Microsoft", Status: ""},
			{OEM: "microsoft", Status: "Gold Partner"},
			{OEM: " ", Status: "orphan"},
		},
	}
	p.Normalize(DefaultListCap)

	assert.Equal(t, "Acme Corp", p.Name)
	assert.Len(t, p.Products, DefaultListCap)
	assert.Equal(t, "Product 0", p.Products[0])
	require.Len(t, p.OEMPartnershipStatus, 1)
	assert.Equal(t, OEMPartnership{OEM: "Microsoft", Status: "Gold Partner"}, p.OEMPartnershipStatus[0])
}

func TestCompanyProfile_FilledFields(t *testing.T) {
	t.Parallel()

	var empty CompanyProfile
	assert.True(t, empty.IsEmpty())
	assert.True(t, (*CompanyProfile)(nil).IsEmpty())

	rev := 1.5e6
	p := CompanyProfile{
		Name:          "Acme",
		Products:      []string{"Widget"},
		AnnualRevenue: &rev,
		GoogleRating:  NumericRating(4.5),
	}
	assert.Equal(t, 4, p.FilledFields())
	assert.False(t, p.IsEmpty())
}

func TestRating_JSON(t *testing.T) {
	t.Parallel()

	t.Run("number", func(t *testing.T) {
		t.Parallel()
		b, err := json.Marshal(NumericRating(4.6))
		require.NoError(t, err)
		assert.Equal(t, "4.6", string(b))
	})

	t.Run("sentinel text", func(t *testing.T) {
		t.Parallel()
		b, err := json.Marshal(Rating{Text: NotAvailable})
		require.NoError(t, err)
		assert.Equal(t, `"Not Available"`, string(b))
	})

	t.Run("zero is null", func(t *testing.T) {
		t.Parallel()
		b, err := json.Marshal(Rating{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})

	t.Run("decode numeric string", func(t *testing.T) {
		t.Parallel()
		var r Rating
		require.NoError(t, json.Unmarshal([]byte(`"4.2"`), &r))
		require.NotNil(t, r.Value)
		assert.InDelta(t, 4.2, *r.Value, 1e-9)
	})

	t.Run("decode non-finite strings as absent", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{`"NaN"`, `"nan"`, `"Inf"`, `"-Infinity"`} {
			var r Rating
			require.NoError(t, json.Unmarshal([]byte(raw), &r), raw)
			assert.True(t, r.IsZero(), raw)

			b, err := json.Marshal(r)
			require.NoError(t, err, raw)
			assert.Equal(t, "null", string(b), raw)
		}
	})

	t.Run("non-finite value marshals as null", func(t *testing.T) {
		t.Parallel()
		nan := math.NaN()
		b, err := json.Marshal(Rating{Value: &nan})
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
		assert.True(t, NumericRating(math.Inf(1)).IsZero())
	})

	t.Run("decode null", func(t *testing.T) {
		t.Parallel()
		r := NumericRating(3)
		require.NoError(t, json.Unmarshal([]byte(`null`), &r))
		assert.True(t, r.IsZero())
	})
}

func TestCompanyProfile_DecodesNulls(t *testing.T) {
	t.Parallel()

	raw := `{"name":"Acme","email":null,"products":null,"annual_revenue":null,"google_rating":null,
		"oem_partnership_status":[{"oem":"Cisco","status":"Premier"}]}`

	var p CompanyProfile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "Acme", p.Name)
	assert.Empty(t, p.Email)
	assert.Nil(t, p.Products)
	assert.Nil(t, p.AnnualRevenue)
	assert.True(t, p.GoogleRating.IsZero())
	assert.Equal(t, "Cisco", p.OEMPartnershipStatus[0].OEM)
}
