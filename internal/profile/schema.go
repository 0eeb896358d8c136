package profile

import (
	"fmt"

	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/model"
)

func nullableString(desc string) map[string]any {
	return map[string]any{"type": []string{"string", "null"}, "description": desc}
}

func nullableNumber(desc string) map[string]any {
	return map[string]any{"type": []string{"number", "null"}, "description": desc}
}

func stringList(desc string, listCap int) map[string]any {
	return map[string]any{
		"type":        []string{"array", "null"},
		"items":       map[string]any{"type": "string"},
		"description": fmt.Sprintf("%s At most %d distinct entries.", desc, listCap),
	}
}

// ProfileSchema describes model.CompanyProfile for schema-constrained calls.
// Every key is required and nullable so the model states absence explicitly.
func ProfileSchema(listCap int) llm.Schema {
	if listCap <= 0 {
		listCap = model.DefaultListCap
	}
	props := map[string]any{
		"website_link":           nullableString("Canonical website URL of the company."),
		"name":                   nullableString("Legal or trading name of the company."),
		"email":                  nullableString("General contact email address."),
		"mobile_number":          nullableString("Mobile phone number, as written on the page."),
		"general_contact_number": nullableString("Main office or sales phone number."),
		"hq_address":             stringList("Headquarters address lines.", listCap),
		"locations_offices":      stringList("Other office or branch locations.", listCap),
		"key_capabilities":       stringList("Core capabilities or services.", listCap),
		"products":               stringList("Named products or product lines.", listCap),
		"industry_types":         stringList("Industries served.", listCap),
		"partner_category":       stringList("Partner categories such as reseller, integrator or distributor.", listCap),
		"number_of_years":        nullableString("Years in business or founding year, as stated."),
		"number_of_customers":    nullableString("Number of customers, as stated."),
		"number_of_employees":    nullableString("Number of employees, as stated."),
		"top_customer_names":     stringList("Named customers.", listCap),
		"case_studies":           stringList("Case study titles or one-line summaries.", listCap),
		"client_testimonials":    stringList("Client testimonial quotes with attribution when given.", listCap),
		"google_rating": map[string]any{
			"type":        []string{"number", "string", "null"},
			"description": "Google rating out of 5 if the page states one, otherwise null.",
		},
		"annual_revenue":         nullableNumber("Annual revenue in USD if stated as a figure, otherwise null."),
		"average_deal_size":      nullableNumber("Average deal size in USD if stated, otherwise null."),
		"funding_status":         nullableString("Funding stage or ownership, such as bootstrapped, Series B or private equity backed."),
		"operating_countries":    stringList("Countries the company operates in.", listCap),
		"oems_working_with":      stringList("OEMs or vendors the company works with.", listCap),
		"brief_company_profile":  nullableString("Two to four sentence summary of the company."),
		"top_management_details": stringList("Leaders as \"Name, Role\".", listCap),
		"product_brochure":       nullableString("URL of a product brochure or datasheet."),
		"youtube_query":          nullableString("A search query likely to find the company's own videos."),
		"youtube_videos":         stringList("Video URLs embedded or linked on the page.", listCap),
		"oem_partnership_status": map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"oem":    map[string]any{"type": "string"},
					"status": map[string]any{"type": []string{"string", "null"}},
				},
				"required":             []string{"oem", "status"},
				"additionalProperties": false,
			},
			"description": fmt.Sprintf("Partnership tier or status per OEM, such as Gold Partner. At most %d entries.", listCap),
		},
	}

	return llm.Schema{
		Name:        "record_company_profile",
		Description: "Record the company profile facts found in the supplied content.",
		Properties:  props,
		Required:    append([]string(nil), profileKeys...),
	}
}

// profileKeys lists the schema keys in a stable order.
var profileKeys = []string{
	"website_link", "name", "email", "mobile_number", "general_contact_number",
	"hq_address", "locations_offices", "key_capabilities", "products", "industry_types",
	"partner_category", "number_of_years", "number_of_customers", "number_of_employees",
	"top_customer_names", "case_studies", "client_testimonials", "google_rating",
	"annual_revenue", "average_deal_size", "funding_status", "operating_countries",
	"oems_working_with", "oem_partnership_status", "brief_company_profile",
	"top_management_details", "product_brochure", "youtube_query", "youtube_videos",
}

// linkSelection is the link selector's structured output.
type linkSelection struct {
	Links []string `json:"links"`
}

// LinkSchema describes the link selector's output.
func LinkSchema(maxLinks int) llm.Schema {
	return llm.Schema{
		Name:        "record_selected_links",
		Description: "Record the links most likely to contain company profile details.",
		Properties: map[string]any{
			"links": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": fmt.Sprintf("Up to %d URLs copied exactly from the candidate list.", maxLinks),
			},
		},
		Required: []string{"links"},
	}
}
