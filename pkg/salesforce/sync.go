package salesforce

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/model"
)

// Custom Account fields written by SyncScores.
const (
	FieldPSIWeighted = "PSI_Weighted__c"
	FieldPSIAveraged = "PSI_Averaged__c"
	FieldTAMTier     = "TAM_Tier__c"
	FieldPrimaryEDP  = "Primary_EDP__c"
)

// ScoreFields returns the Account fields for a scored company.
func ScoreFields(c *model.Company) map[string]any {
	return map[string]any{
		FieldPSIWeighted: c.PSIScore,
		FieldPSIAveraged: c.PSIAveraged,
		FieldTAMTier:     c.TAMTier,
		FieldPrimaryEDP:  c.PrimaryEDP,
	}
}

// SyncOptions control SyncScores.
type SyncOptions struct {
	// CreateMissing inserts an Account for companies with no match.
	CreateMissing bool
}

// SyncResult counts what SyncScores did. AccountIDs maps each matched or
// created domain to its Account id so callers can store it.
type SyncResult struct {
	Updated    int               `json:"updated"`
	Created    int               `json:"created"`
	NotFound   int               `json:"not_found"`
	Failed     int               `json:"failed"`
	AccountIDs map[string]string `json:"account_ids"`
}

// SyncScores writes PSI, tier and primary EDP to each company's Account.
// Companies carrying a SalesforceID skip the website lookup. Lookup and
// per-record failures are counted; only a failed batch call is returned.
func SyncScores(ctx context.Context, c Client, companies []model.Company, opts SyncOptions) (SyncResult, error) {
	res := SyncResult{AccountIDs: make(map[string]string)}
	var updates []AccountUpdate
	domains := make(map[string]string)

	for i := range companies {
		co := &companies[i]
		if co.TAMTier == "" {
			continue
		}
		log := zap.L().With(zap.String("domain", co.Domain))

		id := co.SalesforceID
		if id == "" {
			acct, err := FindAccountByWebsite(ctx, c, co.Domain)
			if err != nil {
				res.Failed++
				log.Warn("sf: account lookup failed", zap.Error(err))
				continue
			}
			if acct != nil {
				id = acct.ID
			}
		}

		if id == "" {
			if !opts.CreateMissing {
				res.NotFound++
				continue
			}
			fields := ScoreFields(co)
			fields["Name"] = co.DisplayName()
			fields["Website"] = co.Domain
			newID, err := CreateAccount(ctx, c, fields)
			if err != nil {
				res.Failed++
				log.Warn("sf: create account failed", zap.Error(err))
				continue
			}
			res.Created++
			res.AccountIDs[co.Domain] = newID
			continue
		}

		updates = append(updates, AccountUpdate{ID: id, Fields: ScoreFields(co)})
		domains[id] = co.Domain
	}

	results, err := BulkUpdateAccounts(ctx, c, updates)
	for _, r := range results {
		if !r.Success {
			res.Failed++
			zap.L().Warn("sf: account update rejected", zap.String("id", r.ID), zap.Strings("errors", r.Errors))
			continue
		}
		res.Updated++
		if d, ok := domains[r.ID]; ok {
			res.AccountIDs[d] = r.ID
		}
	}
	if err != nil {
		return res, eris.Wrap(err, "sf: sync scores")
	}
	return res, nil
}
