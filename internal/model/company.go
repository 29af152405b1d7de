package model

import (
	"strings"
	"time"
)

// Source records how a company first entered the system.
type Source string

const (
	SourceCSV       Source = "csv"
	SourceTradeShow Source = "tradeshow"
	SourceNotion    Source = "notion"
	SourceManual    Source = "manual"
)

// TradeShowRef is a trade show a company is attending. StartsAt is nil when
// the input only named the show and the date must come from the calendar.
type TradeShowRef struct {
	Name     string     `json:"name"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
}

// Contact is the primary outreach recipient at a company.
type Contact struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Title       string `json:"title,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// Company is a prospect keyed by domain. Firmographic pointers are nil when
// the value is unknown.
type Company struct {
	Name   string `json:"company_name"`
	Domain string `json:"domain"`
	Source Source `json:"source,omitempty"`

	EmployeeCount    *int       `json:"employee_count,omitempty"`
	CatalogSKUCount  *int       `json:"catalog_sku_count,omitempty"`
	ChannelCount     *int       `json:"channel_count,omitempty"`
	BrandCount       *int       `json:"brand_count,omitempty"`
	RepCount         *int       `json:"rep_count,omitempty"`
	FieldSalesCount  *int       `json:"field_sales_count,omitempty"`
	CurrentERP       string     `json:"current_erp,omitempty"`
	Industry         string     `json:"industry,omitempty"`
	B2COnly          *bool      `json:"b2c_only,omitempty"`
	HasDealerNetwork *bool      `json:"has_dealer_network,omitempty"`
	LastTradeShowAt  *time.Time `json:"last_trade_show_at,omitempty"`

	TradeShows []TradeShowRef `json:"trade_shows,omitempty"`
	Contact    Contact        `json:"contact"`

	SalesforceID string `json:"salesforce_id,omitempty"`
	NotionPageID string `json:"notion_page_id,omitempty"`

	// Derived by scoring and qualification.
	EDPScores          map[string]float64 `json:"edp_scores,omitempty"`
	PrimaryEDP         string             `json:"primary_edp,omitempty"`
	PrimaryEDPAveraged string             `json:"primary_edp_averaged,omitempty"`
	TAMTier            string             `json:"tam_tier,omitempty"`
	TierAveraged       string             `json:"tier_averaged,omitempty"`
	PSIScore           float64            `json:"psi_score"`
	PSIAveraged        float64            `json:"psi_averaged"`
	Qualified          bool               `json:"qualified"`
	QualificationTier  QualificationTier  `json:"qualification_tier,omitempty"`
	QualificationScore float64            `json:"qualification_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeDomain strips scheme, "www.", path and port from a domain or URL
// and lower-cases the result.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	return d
}

// Attribute looks up a firmographic field by its column name. The boolean is
// false when the field is unknown or unsupported.
func (c *Company) Attribute(field string) (any, bool) {
	intVal := func(p *int) (any, bool) {
		if p == nil {
			return nil, false
		}
		return *p, true
	}
	boolVal := func(p *bool) (any, bool) {
		if p == nil {
			return nil, false
		}
		return *p, true
	}
	strVal := func(s string) (any, bool) {
		if strings.TrimSpace(s) == "" {
			return nil, false
		}
		return s, true
	}

	switch field {
	case "employee_count":
		return intVal(c.EmployeeCount)
	case "catalog_sku_count":
		return intVal(c.CatalogSKUCount)
	case "channel_count":
		return intVal(c.ChannelCount)
	case "brand_count":
		return intVal(c.BrandCount)
	case "rep_count":
		return intVal(c.RepCount)
	case "field_sales_count":
		return intVal(c.FieldSalesCount)
	case "b2c_only":
		return boolVal(c.B2COnly)
	case "has_dealer_network":
		return boolVal(c.HasDealerNetwork)
	case "current_erp":
		return strVal(c.CurrentERP)
	case "industry":
		return strVal(c.Industry)
	case "company_name":
		return strVal(c.Name)
	case "domain":
		return strVal(c.Domain)
	case "last_trade_show_at":
		if c.LastTradeShowAt == nil {
			return nil, false
		}
		return *c.LastTradeShowAt, true
	}
	return nil, false
}

// ApplyScores copies derived pain scores onto the company record.
func (c *Company) ApplyScores(s *PainScores) {
	if s == nil {
		return
	}
	c.EDPScores = make(map[string]float64, len(s.EDPScores))
	for k, v := range s.EDPScores {
		c.EDPScores[k] = v
	}
	c.PrimaryEDP = s.PrimaryEDPWeighted
	c.PrimaryEDPAveraged = s.PrimaryEDPAveraged
	c.TAMTier = s.TierWeighted
	c.TierAveraged = s.TierAveraged
	c.PSIScore = s.WeightedPSI
	c.PSIAveraged = s.AveragedPSI
}

// ApplyQualification copies the qualification outcome onto the company record.
func (c *Company) ApplyQualification(q Qualification) {
	c.Qualified = q.Qualified
	c.QualificationTier = q.Tier
	c.QualificationScore = q.Score
}

// DisplayName returns the company name, falling back to the domain.
func (c *Company) DisplayName() string {
	if strings.TrimSpace(c.Name) != "" {
		return strings.TrimSpace(c.Name)
	}
	return c.Domain
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

// TimePtr returns a pointer to v.
func TimePtr(v time.Time) *time.Time { return &v }
