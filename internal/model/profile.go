package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NotAvailable is the sentinel stored when an enrichment lookup gives up.
const NotAvailable = "Not Available"

// DefaultListCap bounds every list-valued profile field.
const DefaultListCap = 20

// CompanyProfile is the consolidated record produced for one company website.
// Every field is optional; absent data stays empty rather than guessed.
type CompanyProfile struct {
	WebsiteLink          string           `json:"website_link"`
	Name                 string           `json:"name"`
	Email                string           `json:"email"`
	MobileNumber         string           `json:"mobile_number"`
	GeneralContactNumber string           `json:"general_contact_number"`
	HQAddress            []string         `json:"hq_address"`
	LocationsOffices     []string         `json:"locations_offices"`
	KeyCapabilities      []string         `json:"key_capabilities"`
	Products             []string         `json:"products"`
	IndustryTypes        []string         `json:"industry_types"`
	PartnerCategory      []string         `json:"partner_category"`
	NumberOfYears        string           `json:"number_of_years"`
	NumberOfCustomers    string           `json:"number_of_customers"`
	NumberOfEmployees    string           `json:"number_of_employees"`
	TopCustomerNames     []string         `json:"top_customer_names"`
	CaseStudies          []string         `json:"case_studies"`
	ClientTestimonials   []string         `json:"client_testimonials"`
	GoogleRating         Rating           `json:"google_rating"`
	AnnualRevenue        *float64         `json:"annual_revenue"`
	AverageDealSize      *float64         `json:"average_deal_size"`
	FundingStatus        string           `json:"funding_status"`
	OperatingCountries   []string         `json:"operating_countries"`
	OEMsWorkingWith      []string         `json:"oems_working_with"`
	OEMPartnershipStatus []OEMPartnership `json:"oem_partnership_status"`
	BriefCompanyProfile  string           `json:"brief_company_profile"`
	TopManagementDetails []string         `json:"top_management_details"`
	ProductBrochure      string           `json:"product_brochure"`
	YouTubeQuery         string           `json:"youtube_query"`
	YouTubeVideos        []string         `json:"youtube_videos"`
}

// OEMPartnership annotates one OEM with the company's partnership tier or status.
type OEMPartnership struct {
	OEM    string `json:"oem"`
	Status string `json:"status"`
}

// Rating is a Google rating: numeric when known, otherwise free text such as
// NotAvailable. It marshals as a JSON number, a string, or null.
type Rating struct {
	Value *float64
	Text  string
}

// NumericRating returns a Rating holding v. NaN and infinities give the
// zero Rating.
func NumericRating(v float64) Rating {
	if !finite(v) {
		return Rating{}
	}
	return Rating{Value: &v}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsZero reports whether neither a value nor a text fallback is set.
func (r Rating) IsZero() bool {
	return r.Value == nil && r.Text == ""
}

// MarshalJSON implements json.Marshaler.
func (r Rating) MarshalJSON() ([]byte, error) {
	switch {
	case r.Value != nil && finite(*r.Value):
		return json.Marshal(*r.Value)
	case r.Text != "":
		return json.Marshal(r.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numeric strings such as "4.6"
// become values; anything else is kept as text. Strings that parse to NaN or
// an infinity decode as absent.
func (r *Rating) UnmarshalJSON(b []byte) error {
	*r = Rating{}
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		r.Value = &f
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*r = NumericRating(v)
		return nil
	}
	r.Text = s
	return nil
}

// listFields returns pointers to every []string field so callers can
// normalize them uniformly.
func (p *CompanyProfile) listFields() []*[]string {
	return []*[]string{
		&p.HQAddress,
		&p.LocationsOffices,
		&p.KeyCapabilities,
		&p.Products,
		&p.IndustryTypes,
		&p.PartnerCategory,
		&p.TopCustomerNames,
		&p.CaseStudies,
		&p.ClientTestimonials,
		&p.OperatingCountries,
		&p.OEMsWorkingWith,
		&p.TopManagementDetails,
		&p.YouTubeVideos,
	}
}

func (p *CompanyProfile) scalarFields() []*string {
	return []*string{
		&p.WebsiteLink,
		&p.Name,
		&p.Email,
		&p.MobileNumber,
		&p.GeneralContactNumber,
		&p.NumberOfYears,
		&p.NumberOfCustomers,
		&p.NumberOfEmployees,
		&p.FundingStatus,
		&p.BriefCompanyProfile,
		&p.ProductBrochure,
		&p.YouTubeQuery,
	}
}

// Normalize trims scalar fields, de-duplicates every list field
// case-insensitively and truncates each list to listCap entries.
func (p *CompanyProfile) Normalize(listCap int) {
	if listCap <= 0 {
		listCap = DefaultListCap
	}
	for _, s := range p.scalarFields() {
		*s = strings.TrimSpace(*s)
	}
	for _, l := range p.listFields() {
		*l = DedupCap(*l, listCap)
	}
	p.OEMPartnershipStatus = dedupPartnerships(p.OEMPartnershipStatus, listCap)
}

// FilledFields counts the fields that carry a value.
func (p *CompanyProfile) FilledFields() int {
	n := 0
	for _, s := range p.scalarFields() {
		if *s != "" {
			n++
		}
	}
	for _, l := range p.listFields() {
		if len(*l) > 0 {
			n++
		}
	}
	if len(p.OEMPartnershipStatus) > 0 {
		n++
	}
	if !p.GoogleRating.IsZero() {
		n++
	}
	if p.AnnualRevenue != nil {
		n++
	}
	if p.AverageDealSize != nil {
		n++
	}
	return n
}

// IsEmpty reports whether the profile carries no data at all.
func (p *CompanyProfile) IsEmpty() bool {
	return p == nil || p.FilledFields() == 0
}

// DedupCap trims entries, drops blanks and case-insensitive duplicates
// (first occurrence wins) and keeps at most limit entries. It returns nil
// when nothing survives.
func DedupCap(values []string, limit int) []string {
	if len(values) == 0 {
		return nil
	}
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			continue
		}
		key := fold.String(norm.NFKC.String(v))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func dedupPartnerships(in []OEMPartnership, limit int) []OEMPartnership {
	if len(in) == 0 {
		return nil
	}
	fold := cases.Fold()
	seen := make(map[string]int, len(in))
	var out []OEMPartnership
	for _, p := range in {
		p.OEM = strings.TrimSpace(p.OEM)
		p.Status = strings.TrimSpace(p.Status)
		if p.OEM == "" {
			continue
		}
		key := fold.String(norm.NFKC.String(p.OEM))
		if i, ok := seen[key]; ok {
			// Keep the more specific annotation.
			if out[i].Status == "" && p.Status != "" {
				out[i].Status = p.Status
			}
			continue
		}
		if limit > 0 && len(out) >= limit {
			continue
		}
		seen[key] = len(out)
		out = append(out, p)
	}
	return out
}
