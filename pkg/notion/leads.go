package notion

import (
	"strings"

	"github.com/jomei/notionapi"

	"github.com/sells-group/gtm-cli/internal/model"
)

// Lead database property names.
const (
	PropCompany   = "Company"
	PropDomain    = "Domain"
	PropEmployees = "Employees"
	PropIndustry  = "Industry"
	PropEmail     = "Email"
)

// PageToCompany maps a lead page to a company. The boolean is false when
// the page has no usable domain.
func PageToCompany(page notionapi.Page) (model.Company, bool) {
	c := model.Company{
		Source:       model.SourceNotion,
		NotionPageID: string(page.ID),
	}

	c.Name = strings.TrimSpace(textValue(page.Properties[PropCompany]))
	c.Domain = model.NormalizeDomain(textValue(page.Properties[PropDomain]))
	c.Industry = strings.TrimSpace(textValue(page.Properties[PropIndustry]))
	c.Contact.Email = strings.TrimSpace(textValue(page.Properties[PropEmail]))

	if np, ok := page.Properties[PropEmployees].(*notionapi.NumberProperty); ok && np.Number > 0 {
		c.EmployeeCount = model.IntPtr(int(np.Number))
	}

	return c, c.Domain != ""
}

// textValue reads the string form of a title, rich text, url, email or
// select property.
func textValue(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return plainText(p.Title)
	case *notionapi.RichTextProperty:
		return plainText(p.RichText)
	case *notionapi.URLProperty:
		return p.URL
	case *notionapi.EmailProperty:
		return p.Email
	case *notionapi.SelectProperty:
		return p.Select.Name
	default:
		return ""
	}
}

func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}
