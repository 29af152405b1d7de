package model

import "time"

// TradeShow is an event whose exhibitors are prospects. Name is the key.
type TradeShow struct {
	Name      string     `json:"name"`
	URL       string     `json:"url,omitempty"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
}

// Exhibitor is one company listed in a trade show directory.
type Exhibitor struct {
	ShowName   string `json:"show_name"`
	Name       string `json:"name"`
	Domain     string `json:"domain,omitempty"`
	Booth      string `json:"booth,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}
