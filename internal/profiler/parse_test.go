package profiler

import "testing"

func batchOf(ids ...string) []Input {
	out := make([]Input, len(ids))
	for i, id := range ids {
		out[i] = Input{FanCreatorID: id, Text: "text for " + id}
	}
	return out
}

func TestParseBatchPairsByFanIDNotOrder(t *testing.T) {
	content := "```json\n" + arrayResponse(validObj("b_c1"), validObj("a_c1")) + "\n```"
	paired, err := ParseBatchResponse(content, batchOf("a_c1", "b_c1"))
	if err != nil {
		t.Fatalf("ParseBatchResponse: %v", err)
	}
	if len(paired) != 2 {
		t.Fatalf("paired fans: want=2 got=%d", len(paired))
	}
	if paired["a_c1"].FanCreatorID != "a_c1" || paired["b_c1"].FanCreatorID != "b_c1" {
		t.Fatalf("pairing followed array order instead of fan_id")
	}
}

func TestParseBatchDropsUnknownAndDuplicate(t *testing.T) {
	content := arrayResponse(validObj("a_c1"), validObj("ghost_c9"), validObj("b_c1"), validObj("b_c1"))
	paired, err := ParseBatchResponse(content, batchOf("a_c1", "b_c1"))
	if err != nil {
		t.Fatalf("ParseBatchResponse: %v", err)
	}
	if len(paired) != 1 {
		t.Fatalf("paired fans: want=1 got=%d", len(paired))
	}
	if _, ok := paired["b_c1"]; ok {
		t.Fatalf("duplicate fan_id must be dropped, not trusted")
	}
}

func TestParseNormalizesDisplayKeys(t *testing.T) {
	obj := map[string]any{
		"fan_id":               "a_c1",
		"Age indicators":       "30s",
		"Job or career":        "chef",
		"Location hints":       "coastal",
		"Relationship status":  "single",
		"Personality traits":   []string{"direct"},
		"Emotional needs":      []string{"validation"},
		"Purchase motivations": "exclusivity, attention",
		"Communication style":  "short bursts",
		"Life events":          []string{},
	}
	profile, err := ParseSingleResponse(arrayResponse(obj), Input{FanCreatorID: "a_c1"})
	if err != nil {
		t.Fatalf("ParseSingleResponse: %v", err)
	}
	if profile.AgeIndicators != "30s" || profile.JobOrCareer != "chef" {
		t.Fatalf("display keys not normalized: %+v", profile)
	}
	if len(profile.PurchaseMotivations) != 2 || profile.PurchaseMotivations[0] != "exclusivity" {
		t.Fatalf("comma list fallback: got %v", profile.PurchaseMotivations)
	}
}

func TestParseMissingFieldFailsValidation(t *testing.T) {
	obj := validObj("a_c1")
	delete(obj, "emotional_needs")
	_, err := ParseSingleResponse(arrayResponse(obj), Input{FanCreatorID: "a_c1"})
	if err == nil {
		t.Fatalf("missing schema field must fail validation")
	}
}
