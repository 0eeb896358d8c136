package notion_test

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/pkg/notion"
	"github.com/sells-group/profile-cli/pkg/notion/mocks"
)

func seedPage(id, name, url string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Name": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: name}},
			},
			"URL": &notionapi.URLProperty{URL: url},
		},
	}
}

func queuedFilter(cursor notionapi.Cursor) any {
	return mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && pf.Property == "Status" && pf.Status != nil &&
			pf.Status.Equals == "Queued" && req.StartCursor == cursor
	})
}

func TestQueryQueuedSeeds_Paginates(t *testing.T) {
	mc := mocks.NewMockClient(t)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", queuedFilter("")).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{seedPage("p1", " Acme ", "https://acme.com"), seedPage("p2", "No URL", "")},
		HasMore:    true,
		NextCursor: "cursor-2",
	}, nil).Once()
	mc.On("QueryDatabase", ctx, "db-1", queuedFilter("cursor-2")).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{seedPage("p3", "Globex", "globex.com")},
	}, nil).Once()

	seeds, err := notion.QueryQueuedSeeds(ctx, mc, "db-1")
	require.NoError(t, err)
	assert.Equal(t, []notion.Seed{
		{PageID: "p1", Name: "Acme", URL: "https://acme.com"},
		{PageID: "p3", Name: "Globex", URL: "globex.com"},
	}, seeds)
}

func TestQueryQueuedSeeds_Error(t *testing.T) {
	mc := mocks.NewMockClient(t)
	mc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(nil, assert.AnError).Once()

	seeds, err := notion.QueryQueuedSeeds(context.Background(), mc, "db-1")
	assert.Nil(t, seeds)
	assert.ErrorContains(t, err, "notion: query queued seeds")
}

func TestQueryAll_KeepsSorts(t *testing.T) {
	mc := mocks.NewMockClient(t)
	mc.On("QueryDatabase", mock.Anything, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return len(req.Sorts) == 1 && req.Sorts[0].Property == "Name" && req.Filter == nil
	})).Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "p1"}}}, nil).Once()

	pages, err := notion.QueryAll(context.Background(), mc, "db-1", &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{{Property: "Name", Direction: notionapi.SortOrderASC}},
	})
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestEnqueue(t *testing.T) {
	mc := mocks.NewMockClient(t)
	ctx := context.Background()

	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		title, ok := req.Properties["Name"].(notionapi.TitleProperty)
		if !ok || len(title.Title) != 1 {
			return false
		}
		status, ok := req.Properties["Status"].(notionapi.StatusProperty)
		return ok && status.Status.Name == "Queued" &&
			req.Parent.DatabaseID == "db-1" &&
			title.Title[0].Text.Content == "https://globex.com"
	})).Return(&notionapi.Page{ID: "new"}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(&notionapi.Page{ID: "new"}, nil).Once()

	n, err := notion.Enqueue(ctx, mc, "db-1", []notion.Seed{
		{URL: "https://globex.com"},
		{Name: "Acme", URL: "https://acme.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEnqueue_StopsOnError(t *testing.T) {
	mc := mocks.NewMockClient(t)
	mc.On("CreatePage", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	n, err := notion.Enqueue(context.Background(), mc, "db-1", []notion.Seed{
		{URL: "https://acme.com"},
		{URL: "https://globex.com"},
	})
	assert.Equal(t, 0, n)
	assert.ErrorContains(t, err, "notion: enqueue https://acme.com")
}

func TestMarkDone(t *testing.T) {
	mc := mocks.NewMockClient(t)
	mc.On("UpdatePage", mock.Anything, "page-1", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		status, ok := req.Properties["Status"].(notionapi.StatusProperty)
		fields, ok2 := req.Properties["Fields Found"].(notionapi.NumberProperty)
		_, ok3 := req.Properties["Last Enriched"].(notionapi.DateProperty)
		return ok && ok2 && ok3 && status.Status.Name == "Done" && fields.Number == 12
	})).Return(&notionapi.Page{}, nil).Once()

	err := notion.MarkDone(context.Background(), mc, "page-1", notion.Outcome{FieldsFound: 12, Cost: 0.02})
	assert.NoError(t, err)
}

func TestMarkFailed(t *testing.T) {
	mc := mocks.NewMockClient(t)
	mc.On("UpdatePage", mock.Anything, "page-1", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		status, ok := req.Properties["Status"].(notionapi.StatusProperty)
		reason, ok2 := req.Properties["Failure"].(notionapi.RichTextProperty)
		return ok && ok2 && status.Status.Name == "Failed" &&
			reason.RichText[0].Text.Content == "FETCH_FAILED at SEED_FETCH"
	})).Return(&notionapi.Page{}, nil).Once()

	err := notion.MarkFailed(context.Background(), mc, "page-1", "FETCH_FAILED", "SEED_FETCH")
	assert.NoError(t, err)
}

func TestMarkFailed_Error(t *testing.T) {
	mc := mocks.NewMockClient(t)
	mc.On("UpdatePage", mock.Anything, "page-1", mock.Anything).Return(nil, assert.AnError).Once()

	err := notion.MarkFailed(context.Background(), mc, "page-1", "TIMEOUT", "")
	assert.ErrorContains(t, err, "notion: mark page-1 failed")
}
