package enrich

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/sells-group/profile-cli/internal/model"
)

const defaultRegion = "US"

// NormalizeContacts rewrites phone numbers as E.164 where they parse as
// valid for region and lower-cases the email. Numbers that do not parse are
// kept as written.
func NormalizeContacts(p *model.CompanyProfile, region string) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}
	p.MobileNumber = NormalizePhone(p.MobileNumber, region)
	p.GeneralContactNumber = NormalizePhone(p.GeneralContactNumber, region)
	p.Email = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p.Email), "mailto:")))
}

// NormalizePhone formats raw as E.164, or returns it trimmed when it is not
// a valid number.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "tel:"))
	if raw == "" || raw == model.NotAvailable {
		return raw
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
