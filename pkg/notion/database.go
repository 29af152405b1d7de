package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Lead status values in the lead database.
const (
	StatusQueued   = "Queued"
	StatusImported = "Imported"
)

// QueryAll follows the cursor until every page matching query is fetched.
// query may be nil.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if query != nil {
			req.Filter = query.Filter
			req.Sorts = query.Sorts
			req.PageSize = query.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query all (%d pages so far)", len(all))
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryQueuedLeads returns every page whose Status is Queued.
func QueryQueuedLeads(ctx context.Context, c Client, dbID string) ([]notionapi.Page, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status:   &notionapi.StatusFilterCondition{Equals: StatusQueued},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued leads")
	}
	return pages, nil
}

// SetStatus updates a lead page's Status property.
func SetStatus(ctx context.Context, c Client, pageID, status string) error {
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Type:   notionapi.PropertyTypeStatus,
				Status: notionapi.Status{Name: status},
			},
		},
	})
	return eris.Wrapf(err, "notion: set status %s", status)
}
