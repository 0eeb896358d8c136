package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Seed queue status values.
const (
	StatusQueued = "Queued"
	StatusDone   = "Done"
	StatusFailed = "Failed"
)

// Property names of the seed database.
const (
	propName         = "Name"
	propURL          = "URL"
	propStatus       = "Status"
	propLastEnriched = "Last Enriched"
	propFields       = "Fields Found"
	propCost         = "Profile Cost"
	propFailure      = "Failure"
)

// Seed is one queued row.
type Seed struct {
	PageID string
	Name   string
	URL    string
}

// Outcome summarises a finished run for the queue row.
type Outcome struct {
	FieldsFound int
	Cost        float64
}

// QueryAll fetches every page of a database query, following cursors.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{}
	if query != nil {
		req.Filter = query.Filter
		req.Sorts = query.Sorts
		req.PageSize = query.PageSize
	}

	var all []notionapi.Page
	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		next := *req
		next.StartCursor = resp.NextCursor
		req = &next
	}
}

// QueryQueuedSeeds returns every row with Status = Queued that carries a URL.
func QueryQueuedSeeds(ctx context.Context, c Client, dbID string) ([]Seed, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: propStatus,
			Status: &notionapi.StatusFilterCondition{
				Equals: StatusQueued,
			},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued seeds")
	}

	seeds := make([]Seed, 0, len(pages))
	for _, p := range pages {
		s := SeedFromPage(p)
		if s.URL == "" {
			continue
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// SeedFromPage reads the Name title and URL properties of a row.
func SeedFromPage(page notionapi.Page) Seed {
	s := Seed{PageID: string(page.ID)}
	if prop, ok := page.Properties[propName]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			for _, rt := range tp.Title {
				s.Name += rt.PlainText
			}
		}
	}
	if prop, ok := page.Properties[propURL]; ok {
		if up, ok := prop.(*notionapi.URLProperty); ok {
			s.URL = up.URL
		}
	}
	s.Name = strings.TrimSpace(s.Name)
	s.URL = strings.TrimSpace(s.URL)
	return s
}

// Enqueue creates a Queued row for each seed and returns how many were
// created. It stops at the first failure.
func Enqueue(ctx context.Context, c Client, dbID string, seeds []Seed) (int, error) {
	created := 0
	for _, s := range seeds {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "notion: enqueue cancelled")
		}
		name := s.Name
		if name == "" {
			name = s.URL
		}
		_, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: notionapi.Properties{
				propName: notionapi.TitleProperty{
					Type: notionapi.PropertyTypeTitle,
					Title: []notionapi.RichText{
						{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: name}},
					},
				},
				propURL: notionapi.URLProperty{
					Type: notionapi.PropertyTypeURL,
					URL:  s.URL,
				},
				propStatus: notionapi.StatusProperty{
					Status: notionapi.Status{Name: StatusQueued},
				},
			},
		})
		if err != nil {
			return created, eris.Wrap(err, fmt.Sprintf("notion: enqueue %s", s.URL))
		}
		created++
	}
	return created, nil
}

// MarkDone sets a row to Done and records the outcome.
func MarkDone(ctx context.Context, c Client, pageID string, out Outcome) error {
	props := statusProps(StatusDone)
	props[propFields] = notionapi.NumberProperty{Number: float64(out.FieldsFound)}
	props[propCost] = notionapi.NumberProperty{Number: out.Cost}
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: mark %s done", pageID))
	}
	return nil
}

// MarkFailed sets a row to Failed with the failure kind and stage, never
// the underlying error text.
func MarkFailed(ctx context.Context, c Client, pageID, kind, stage string) error {
	reason := kind
	if stage != "" {
		reason += " at " + stage
	}
	props := statusProps(StatusFailed)
	props[propFailure] = notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: reason}},
		},
	}
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: mark %s failed", pageID))
	}
	return nil
}

func statusProps(status string) notionapi.Properties {
	now := notionapi.Date(time.Now())
	return notionapi.Properties{
		propStatus: notionapi.StatusProperty{
			Status: notionapi.Status{Name: status},
		},
		propLastEnriched: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &now},
		},
	}
}
