package types

// --------------------------------------------
// LLM-extracted fan profile
// --------------------------------------------
// FanProfile is the structured record extracted from a fan's aggregated text.
// Keyed by (fan_creator_id, fingerprint); never mutated — changed input text
// produces a new fingerprint and therefore a new profile.
type FanProfile struct {
	FanCreatorID string `json:"fan_creator_id"`
	Fingerprint  string `json:"fingerprint,omitempty"`

	AgeIndicators       string   `json:"age_indicators"`
	JobOrCareer         string   `json:"job_or_career"`
	LocationHints       string   `json:"location_hints"`
	RelationshipStatus  string   `json:"relationship_status"`
	PersonalityTraits   []string `json:"personality_traits"`
	EmotionalNeeds      []string `json:"emotional_needs"`
	PurchaseMotivations []string `json:"purchase_motivations"`
	CommunicationStyle  string   `json:"communication_style"`
	LifeEvents          []string `json:"life_events"`

	// Failed marks profiling_failed fans: all retries exhausted. Such fans
	// still get a method-A embedding, never a hybrid one.
	Failed bool `json:"profiling_failed,omitempty"`
}

// Method names the two embedding pipelines.
type Method string

const (
	MethodText   Method = "A" // text-only
	MethodHybrid Method = "B" // text + normalized profile features
)

// EmbeddingVector is one fixed-length vector per (fan, stage, method).
type EmbeddingVector struct {
	FanCreatorID string     `json:"fan_creator_id"`
	Stage        StageIndex `json:"stage"`
	Method       Method     `json:"method"`
	Vector       []float64  `json:"vector"`

	// ProfileMissing flags method-B vectors built by zero-padding because the
	// fan's profile was unavailable.
	ProfileMissing bool `json:"profile_missing,omitempty"`
}

// ClusterAssignment maps (fan, stage, method) to an integer label plus the
// projected coordinates. Labels are arbitrary integers, not ordered.
type ClusterAssignment struct {
	FanCreatorID string     `json:"fan_creator_id"`
	Stage        StageIndex `json:"stage"`
	Method       Method     `json:"method"`
	Label        int        `json:"cluster"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Z            float64    `json:"z"`
}

// RunSummary is the operator-facing coverage report logged at end of run.
type RunSummary struct {
	RunID            string `json:"run_id"`
	Conversations    int    `json:"conversations"`
	MalformedSkipped int    `json:"conversation_malformed_skipped"`
	Profiled         int    `json:"profiled"`
	FromCache        int    `json:"served_from_cache"`
	ProfilingFailed  int    `json:"profiling_failed"`
	Embedded         int    `json:"embedded"`
	Assignments      int    `json:"cluster_assignments"`
}
