package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONArrayFromFencedOutput(t *testing.T) {
	content := "Here are the profiles you asked for:\n```json\n[{\"fan_id\": \"a\"}, {\"fan_id\": \"b\"}]\n```\nLet me know if you need more."
	raw := ExtractJSONArray(content)
	if raw == "" {
		t.Fatalf("no array extracted")
	}
	var arr []map[string]any
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		t.Fatalf("extracted array does not decode: %v", err)
	}
	if len(arr) != 2 || arr[1]["fan_id"] != "b" {
		t.Fatalf("decoded: %v", arr)
	}
}

func TestExtractJSONArrayCleansTrailingCommas(t *testing.T) {
	raw := ExtractJSONArray(`[{"k": "v",},]`)
	var arr []map[string]string
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		t.Fatalf("trailing commas not cleaned: %v (raw=%q)", err, raw)
	}
	if len(arr) != 1 || arr[0]["k"] != "v" {
		t.Fatalf("decoded: %v", arr)
	}
}

func TestExtractJSONObjectIgnoresBracesInsideStrings(t *testing.T) {
	raw := ExtractJSONObject(`prefix {"note": "looks like {a brace} and a \"quote\"", "n": 1} suffix`)
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("extracted object does not decode: %v (raw=%q)", err, raw)
	}
	if obj["n"] != float64(1) {
		t.Fatalf("decoded: %v", obj)
	}
}

func TestExtractJSONObjectFromArray(t *testing.T) {
	raw := ExtractJSONObject(`[{"fan_id": "a"}]`)
	var obj map[string]string
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("object inside array not extracted: %v", err)
	}
	if obj["fan_id"] != "a" {
		t.Fatalf("decoded: %v", obj)
	}
}

func TestExtractJSONArrayNoneFound(t *testing.T) {
	if got := ExtractJSONArray("the model refused to answer"); got != "" {
		t.Fatalf("want empty, got %q", got)
	}
	if got := ExtractJSONArray("[1, 2"); got != "" {
		t.Fatalf("unbalanced input must yield empty, got %q", got)
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{404, false},
	}
	for _, tc := range cases {
		err := &ProviderError{StatusCode: tc.status}
		if got := err.Retryable(); got != tc.want {
			t.Fatalf("status %d retryable: want=%v got=%v", tc.status, tc.want, got)
		}
		if got := IsUnavailable(err); got != tc.want {
			t.Fatalf("status %d IsUnavailable: want=%v got=%v", tc.status, tc.want, got)
		}
	}
}
