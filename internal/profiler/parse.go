package profiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"fan-insights-go/internal/llm"
	"fan-insights-go/internal/types"
)

// SchemaValidationError means the provider answered but the per-fan object
// failed field-by-field validation. Retryable at single-fan granularity.
type SchemaValidationError struct {
	FanCreatorID string
	Reason       string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("profile for %s failed schema validation: %s", e.FanCreatorID, e.Reason)
}

// providers have been observed returning display-style keys; map them back
// to the declared snake_case schema before validation
var keyAliases = map[string]string{
	"Age indicators":       "age_indicators",
	"Job or career":        "job_or_career",
	"Location hints":       "location_hints",
	"Relationship status":  "relationship_status",
	"Personality traits":   "personality_traits",
	"Emotional needs":      "emotional_needs",
	"Purchase motivations": "purchase_motivations",
	"Communication style":  "communication_style",
	"Life events":          "life_events",
}

var stringFields = []string{
	"age_indicators", "job_or_career", "location_hints",
	"relationship_status", "communication_style",
}

var listFields = []string{
	"personality_traits", "emotional_needs", "purchase_motivations", "life_events",
}

// ParseBatchResponse pulls the JSON array out of raw model output and pairs
// each object to a fan by its fan_id field. Objects with an unknown or
// duplicate fan_id are dropped; such fans come back missing and get retried
// individually by the orchestrator.
func ParseBatchResponse(content string, batch []Input) (map[string]types.FanProfile, error) {
	raw := llm.ExtractJSONArray(content)
	if raw == "" {
		// single-fan responses sometimes come back as a bare object
		if obj := llm.ExtractJSONObject(content); obj != "" {
			raw = "[" + obj + "]"
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("no JSON array found in provider output")
	}

	var objects []map[string]any
	if err := json.Unmarshal([]byte(raw), &objects); err != nil {
		return nil, fmt.Errorf("decode profile array: %w", err)
	}

	known := make(map[string]bool, len(batch))
	for _, in := range batch {
		known[in.FanCreatorID] = true
	}

	out := make(map[string]types.FanProfile, len(objects))
	for _, obj := range objects {
		normalized := normalizeKeys(obj)
		fanID, _ := normalized["fan_id"].(string)
		if fanID == "" || !known[fanID] {
			continue
		}
		if _, dup := out[fanID]; dup {
			delete(out, fanID)
			continue
		}
		profile, err := buildProfile(fanID, normalized)
		if err != nil {
			// leave the fan missing; the orchestrator retries it solo
			continue
		}
		out[fanID] = profile
	}
	return out, nil
}

// ParseSingleResponse validates the object for exactly one fan.
func ParseSingleResponse(content string, in Input) (types.FanProfile, error) {
	raw := llm.ExtractJSONObject(content)
	if raw == "" {
		return types.FanProfile{}, &SchemaValidationError{FanCreatorID: in.FanCreatorID, Reason: "no JSON object in provider output"}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return types.FanProfile{}, &SchemaValidationError{FanCreatorID: in.FanCreatorID, Reason: err.Error()}
	}
	return buildProfile(in.FanCreatorID, normalizeKeys(obj))
}

func normalizeKeys(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if alias, ok := keyAliases[k]; ok {
			k = alias
		} else {
			k = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), " ", "_"))
		}
		out[k] = v
	}
	return out
}

// buildProfile validates field-by-field against the declared schema.
func buildProfile(fanID string, obj map[string]any) (types.FanProfile, error) {
	for _, field := range stringFields {
		if _, ok := obj[field]; !ok {
			return types.FanProfile{}, &SchemaValidationError{FanCreatorID: fanID, Reason: "missing field " + field}
		}
		if _, ok := asString(obj[field]); !ok {
			return types.FanProfile{}, &SchemaValidationError{FanCreatorID: fanID, Reason: "field " + field + " is not a string"}
		}
	}
	for _, field := range listFields {
		if _, ok := obj[field]; !ok {
			return types.FanProfile{}, &SchemaValidationError{FanCreatorID: fanID, Reason: "missing field " + field}
		}
		if _, ok := asStringList(obj[field]); !ok {
			return types.FanProfile{}, &SchemaValidationError{FanCreatorID: fanID, Reason: "field " + field + " is not a string list"}
		}
	}

	p := types.FanProfile{FanCreatorID: fanID}
	p.AgeIndicators, _ = asString(obj["age_indicators"])
	p.JobOrCareer, _ = asString(obj["job_or_career"])
	p.LocationHints, _ = asString(obj["location_hints"])
	p.RelationshipStatus, _ = asString(obj["relationship_status"])
	p.CommunicationStyle, _ = asString(obj["communication_style"])
	p.PersonalityTraits, _ = asStringList(obj["personality_traits"])
	p.EmotionalNeeds, _ = asStringList(obj["emotional_needs"])
	p.PurchaseMotivations, _ = asStringList(obj["purchase_motivations"])
	p.LifeEvents, _ = asStringList(obj["life_events"])
	return p, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asStringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		// comma-separated fallback, seen from smaller models
		if t == "" {
			return []string{}, true
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
