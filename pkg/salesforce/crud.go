package salesforce

import (
	"context"

	"github.com/rotisserie/eris"
)

// UpdateAccount sets fields on one Account.
func UpdateAccount(ctx context.Context, c Client, accountID string, fields map[string]any) error {
	if accountID == "" {
		return eris.New("sf: account id is required")
	}
	if len(fields) == 0 {
		return eris.New("sf: no fields to update")
	}
	return eris.Wrapf(c.UpdateOne(ctx, "Account", accountID, fields), "sf: update account %s", accountID)
}

// CreateAccount inserts an Account and returns its id.
func CreateAccount(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if name, _ := fields["Name"].(string); name == "" {
		return "", eris.New("sf: account Name is required")
	}
	id, err := c.InsertOne(ctx, "Account", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create account")
	}
	return id, nil
}
