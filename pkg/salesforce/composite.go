package salesforce

import (
	"context"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the Collections API limit per request.
const maxBatchSize = 200

// AccountUpdate is one Account id and its new field values.
type AccountUpdate struct {
	ID     string
	Fields map[string]any
}

// BulkUpdateAccounts sends updates in batches of maxBatchSize. Results
// gathered before a failing batch are returned with the error. A single
// update goes out as one PATCH instead of a collection call.
func BulkUpdateAccounts(ctx context.Context, c Client, updates []AccountUpdate) ([]CollectionResult, error) {
	if len(updates) == 1 {
		u := updates[0]
		if err := UpdateAccount(ctx, c, u.ID, u.Fields); err != nil {
			return nil, eris.Wrap(err, "sf: bulk update accounts 0-1")
		}
		return []CollectionResult{{ID: u.ID, Success: true}}, nil
	}

	var all []CollectionResult
	for start := 0; start < len(updates); start += maxBatchSize {
		end := min(start+maxBatchSize, len(updates))

		records := make([]CollectionRecord, 0, end-start)
		for _, u := range updates[start:end] {
			records = append(records, CollectionRecord(u))
		}

		results, err := c.UpdateCollection(ctx, "Account", records)
		if err != nil {
			return all, eris.Wrapf(err, "sf: bulk update accounts %d-%d", start, end)
		}
		all = append(all, results...)
	}
	return all, nil
}
