package profiler

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert profiler. Your output must be ONLY a JSON array. No explanation or text."

// BuildBatchPrompt asks for one profile object per fan. Every object must
// echo the fan_id it belongs to: responses are paired by that identifier,
// never by array position, so provider reordering or omission cannot
// cross-wire fans.
func BuildBatchPrompt(batch []Input) string {
	var b strings.Builder
	b.WriteString("You're a fan profiler for a premium chat platform.\n\n")
	b.WriteString("For each fan conversation below, extract:\n")
	b.WriteString("- Age indicators\n")
	b.WriteString("- Job or career\n")
	b.WriteString("- Location hints\n")
	b.WriteString("- Relationship status\n")
	b.WriteString("- Personality traits\n")
	b.WriteString("- Emotional needs\n")
	b.WriteString("- Purchase motivations\n")
	b.WriteString("- Communication style\n")
	b.WriteString("- Life events\n\n")
	b.WriteString("Return ONLY a JSON array of objects, one object per fan, no commentary, no markdown.\n")
	b.WriteString("Each object MUST include a \"fan_id\" field copied verbatim from the header of that fan's messages.\n\n")

	for _, in := range batch {
		fmt.Fprintf(&b, "Fan fan_id=%q messages:\n%s\n\n", in.FanCreatorID, in.Text)
	}
	return b.String()
}
