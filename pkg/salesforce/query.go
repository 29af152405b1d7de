package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account is the Account projection the sync reads.
type Account struct {
	ID                string  `json:"Id" salesforce:"Id"`
	Name              string  `json:"Name" salesforce:"Name"`
	Website           string  `json:"Website" salesforce:"Website"`
	Industry          string  `json:"Industry" salesforce:"Industry"`
	NumberOfEmployees int     `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	PSIWeighted       float64 `json:"PSI_Weighted__c" salesforce:"PSI_Weighted__c"`
	TAMTier           string  `json:"TAM_Tier__c" salesforce:"TAM_Tier__c"`
}

var accountFields = []string{
	"Id", "Name", "Website", "Industry", "NumberOfEmployees", FieldPSIWeighted, FieldTAMTier,
}

// FindAccountByWebsite returns the first Account whose Website contains
// domain, or nil when none does.
func FindAccountByWebsite(ctx context.Context, c Client, domain string) (*Account, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, eris.New("sf: domain is required")
	}
	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Website LIKE '%%%s%%' ORDER BY LastModifiedDate DESC LIMIT 1",
		strings.Join(accountFields, ", "),
		escapeSoql(domain),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrapf(err, "sf: find account by website %s", domain)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// escapeSoql escapes a value for use inside a quoted LIKE pattern.
func escapeSoql(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, `%`, `\%`, `_`, `\_`).Replace(s)
}
