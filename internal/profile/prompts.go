package profile

import (
	"fmt"
	"strings"

	"github.com/sells-group/profile-cli/internal/model"
)

// MergeInstruction seeds every run's conversation. The consolidation call
// sees it as the system prompt.
const MergeInstruction = `You are consolidating structured data extracted from one company's website.
Each user message holds the facts extracted from a single page, supplied one page at a time as the site was read.
Merge them into one company profile:
- Keep every distinct fact. Never drop information that appears in any page's data.
- Remove duplicate list entries, including near-duplicates that differ only in case, punctuation or abbreviation.
- When pages disagree on a single value, prefer the most complete and specific one.
- Keep each list to the most relevant entries when it would otherwise grow very long.
- Never invent facts. Leave a field null when no page supplied it.`

// ExtractInstruction is the system prompt for per-page extraction.
const ExtractInstruction = `Extract company profile details from the text of one page of the company's website.
Look for:
- basic information: company name, email address, mobile and general contact numbers, headquarters address and other office locations;
- operations: capabilities and service categories, named products, industries served, partner categories, operating countries;
- experience and size: years in business or founding year, number of customers, number of employees, funding status;
- reputation: named customers, case studies, client testimonials, OEM relationships and partnership tiers;
- leadership: members of the management team with their roles;
- resources and ratings: product brochure links, video links, any stated rating, revenue or deal size.
Record only facts that are present in the text. Use null for anything the page does not state; never guess or fabricate values, especially numbers.`

// SelectInstruction is the system prompt for link selection.
const SelectInstruction = `You choose which pages of a company's website to read next.
From the candidate links, pick the ones most likely to describe the company itself: about, contact, products, services, solutions, industries, customers, case studies, partners, team or leadership pages.
Skip legal notices, login pages, shopping carts, individual blog or news posts and duplicate pages.
Return only URLs copied exactly from the candidate list.`

func extractPrompt(pageURL, text string) string {
	return fmt.Sprintf("Page URL: %s\n\nPage content:\n\n%s", pageURL, text)
}

func selectPrompt(seedURL string, candidates []model.LinkCandidate, maxLinks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Website: %s\n\nCandidate links:\n", seedURL)
	for _, c := range candidates {
		b.WriteString(c.URL)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nPick between %d and %d links that can provide these details: %s.",
		min(5, maxLinks), maxLinks, strings.Join(profileKeys, ", "))
	return b.String()
}

const consolidatePrompt = "Merge all of the page extractions above into a single company profile."
