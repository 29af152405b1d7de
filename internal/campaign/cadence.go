// Package campaign turns a scored company into a seven-touch outreach
// sequence plus ad copy, optionally polished by an LLM writer.
package campaign

import "github.com/sells-group/gtm-cli/internal/model"

// Stages in cadence order.
const (
	StageIntro   = "intro"
	StageConnect = "connect"
	StageValue   = "value"
	StageEngage  = "engage"
	StageProof   = "proof"
	StageUrgency = "urgency"
	StageBreakup = "breakup"
)

// Touch is one scheduled message slot.
type Touch struct {
	Step    int           `json:"step" yaml:"step"`
	Day     int           `json:"day" yaml:"day"`
	Channel model.Channel `json:"channel" yaml:"channel"`
	Stage   string        `json:"stage" yaml:"stage"`
}

// DefaultCadence is the 21-day, seven-touch sequence.
func DefaultCadence() []Touch {
	return []Touch{
		{Step: 1, Day: 0, Channel: model.ChannelEmail, Stage: StageIntro},
		{Step: 2, Day: 3, Channel: model.ChannelLinkedIn, Stage: StageConnect},
		{Step: 3, Day: 7, Channel: model.ChannelEmail, Stage: StageValue},
		{Step: 4, Day: 10, Channel: model.ChannelLinkedIn, Stage: StageEngage},
		{Step: 5, Day: 14, Channel: model.ChannelEmail, Stage: StageProof},
		{Step: 6, Day: 18, Channel: model.ChannelEmail, Stage: StageUrgency},
		{Step: 7, Day: 21, Channel: model.ChannelEmail, Stage: StageBreakup},
	}
}
