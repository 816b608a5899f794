package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"regexp"
)

// MockClient is the offline demo provider (USE_MOCK_LLM=true): deterministic
// profiles and embeddings with no network, exercising the same parse and
// pairing paths as the real gateway.
type MockClient struct {
	EmbedDim int
}

func NewMockClient() *MockClient {
	return &MockClient{EmbedDim: 64}
}

var fanIDPattern = regexp.MustCompile(`fan_id="([^"]+)"`)

func (m *MockClient) Chat(_ context.Context, _ string, user string) (string, error) {
	matches := fanIDPattern.FindAllStringSubmatch(user, -1)
	out := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		out = append(out, map[string]any{
			"fan_id":               match[1],
			"age_indicators":       "30-40",
			"job_or_career":        "software engineer",
			"location_hints":       "US midwest",
			"relationship_status":  "single",
			"personality_traits":   []string{"introverted", "loyal"},
			"emotional_needs":      []string{"companionship", "validation"},
			"purchase_motivations": []string{"exclusive content"},
			"communication_style":  "short late-night messages",
			"life_events":          []string{"recent move"},
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Embed derives a pseudo-vector from the text hash so identical text always
// maps to an identical vector of constant dimensionality.
func (m *MockClient) Embed(_ context.Context, texts []string) ([][]float64, error) {
	dim := m.EmbedDim
	if dim <= 0 {
		dim = 64
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		sum := sha256.Sum256([]byte(text))
		vec := make([]float64, dim)
		for j := range vec {
			word := binary.BigEndian.Uint32(sum[(j*4)%28 : (j*4)%28+4])
			vec[j] = float64(word%2000)/1000.0 - 1.0
		}
		out[i] = vec
	}
	return out, nil
}
