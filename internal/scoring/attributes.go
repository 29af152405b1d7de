package scoring

import "github.com/sells-group/gtm-cli/internal/model"

// attributeScore is the firmographic component. Unknown attributes add
// nothing.
func attributeScore(prefix string, c *model.Company, bundle *model.EvidenceBundle) float64 {
	if c == nil {
		return 0
	}
	at := func(p *int, n int) bool { return p != nil && *p >= n }

	var s float64
	switch prefix {
	case "EDP1":
		switch {
		case at(c.CatalogSKUCount, 10000):
			s += 20
		case at(c.CatalogSKUCount, 1000):
			s += 10
		}
	case "EDP3":
		if at(c.EmployeeCount, 200) && bundle != nil {
			if ind, ok := bundle.Indicators["EDP3_No_Modern_Framework"]; ok && ind.State == model.StatePresent {
				s += 10
			}
		}
	case "EDP6":
		switch {
		case at(c.ChannelCount, 3):
			s += 20
		case at(c.ChannelCount, 2):
			s += 10
		}
		if at(c.BrandCount, 3) {
			s += 10
		}
	case "EDP7":
		switch {
		case at(c.RepCount, 20):
			s += 15
		case at(c.RepCount, 5):
			s += 10
		}
	}
	return s
}
