package types

import "time"

// StageIndex numbers the engagement phases: 1 acquisition, 2 monetization,
// 3 retention.
type StageIndex int

const (
	StageAcquisition  StageIndex = 1
	StageMonetization StageIndex = 2
	StageRetention    StageIndex = 3
)

// Stage is a contiguous sub-sequence of one conversation bounded by purchase
// milestones. Messages is a sub-slice of the parent conversation, never a
// copy of different data.
type Stage struct {
	Index        StageIndex `json:"stage"`
	FanCreatorID string     `json:"fan_creator_id"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	Messages     []Message  `json:"-"`
}

// FanText concatenates fan-authored texts within the stage window, space
// separated, matching the embedding input convention.
func (s Stage) FanText() string {
	out := ""
	for _, m := range s.Messages {
		if m.Sender != SenderFan || m.Text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += m.Text
	}
	return out
}
