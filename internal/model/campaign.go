package model

import "time"

// Channel is an outreach medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
)

// Message is one touch in a campaign cadence.
type Message struct {
	Step    int     `json:"step"`
	Day     int     `json:"day"`
	Channel Channel `json:"channel"`
	Stage   string  `json:"stage"`
	Subject string  `json:"subject,omitempty"`
	Body    string  `json:"body"`
	LLM     bool    `json:"llm_generated"`
}

// AdSuggestion is one ad copy variant for a platform.
type AdSuggestion struct {
	Platform string `json:"platform"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
	CTA      string `json:"cta"`
}

// Campaign is the generated outreach for one company and one primary EDP.
type Campaign struct {
	ID               string         `json:"id"`
	CompanyDomain    string         `json:"company_domain"`
	CompanyName      string         `json:"company_name"`
	PrimaryEDP       string         `json:"primary_edp"`
	Seed             int64          `json:"seed"`
	EmailSequence    []Message      `json:"email_sequence"`
	LinkedInSequence []Message      `json:"linkedin_sequence"`
	AdSuggestions    []AdSuggestion `json:"ad_suggestions"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Messages returns every touch ordered by step.
func (c *Campaign) Messages() []Message {
	out := make([]Message, 0, len(c.EmailSequence)+len(c.LinkedInSequence))
	i, j := 0, 0
	for i < len(c.EmailSequence) || j < len(c.LinkedInSequence) {
		switch {
		case j >= len(c.LinkedInSequence):
			out = append(out, c.EmailSequence[i])
			i++
		case i >= len(c.EmailSequence):
			out = append(out, c.LinkedInSequence[j])
			j++
		case c.EmailSequence[i].Step <= c.LinkedInSequence[j].Step:
			out = append(out, c.EmailSequence[i])
			i++
		default:
			out = append(out, c.LinkedInSequence[j])
			j++
		}
	}
	return out
}

// OutreachStatus is the delivery state of an outreach row.
type OutreachStatus string

const (
	OutreachPending    OutreachStatus = "pending"
	OutreachSentToClay OutreachStatus = "sent_to_clay"
)

// Outreach is one message for one recipient.
type Outreach struct {
	ID            string         `json:"id"`
	CampaignID    string         `json:"campaign_id"`
	CompanyDomain string         `json:"company_domain"`
	Step          int            `json:"step"`
	Day           int            `json:"day"`
	Channel       Channel        `json:"channel"`
	Recipient     string         `json:"recipient,omitempty"`
	Subject       string         `json:"subject,omitempty"`
	Body          string         `json:"body"`
	Status        OutreachStatus `json:"status"`
	SentToClay    bool           `json:"sent_to_clay"`
	CreatedAt     time.Time      `json:"created_at"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
}

// PerformanceMetric is a numeric observation about a campaign or run.
type PerformanceMetric struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}
