package types

// --------------------------------------------
// Per-stage numeric features
// --------------------------------------------
// FeatureVector has a fixed schema so vectors are directly comparable across
// all fans and stages. Values() must stay aligned with Columns().
type FeatureVector struct {
	FanCreatorID string     `json:"fan_creator_id"`
	Stage        StageIndex `json:"stage"`

	MessageCount  int     `json:"message_count"`
	Revenue       float64 `json:"revenue"`
	PurchaseCount int     `json:"purchase_count"`
	PurchaseRate  float64 `json:"purchase_rate"`
	DurationHours float64 `json:"duration_hours"`
	MaxGapHours   float64 `json:"max_gap_hours"`

	MessagesBeforeFirstPurchase  int     `json:"messages_before_first_purchase"`
	TimeToFirstPurchaseHours     float64 `json:"time_to_first_purchase_hrs"` // -1 when no purchase
	DaysBetweenFirstLastPurchase float64 `json:"days_between_first_last_purchase"`

	FanReplyMeanHours     float64 `json:"fan_reply_mean_hours"`
	FanReplyMaxHours      float64 `json:"fan_reply_max_hours"`
	CreatorReplyMeanHours float64 `json:"creator_reply_mean_hours"`
	CreatorReplyMaxHours  float64 `json:"creator_reply_max_hours"`
}

// FeatureColumns is the stable column order of the numeric block.
func FeatureColumns() []string {
	return []string{
		"message_count",
		"revenue",
		"purchase_count",
		"purchase_rate",
		"duration_hours",
		"max_gap_hours",
		"messages_before_first_purchase",
		"time_to_first_purchase_hrs",
		"days_between_first_last_purchase",
		"fan_reply_mean_hours",
		"fan_reply_max_hours",
		"creator_reply_mean_hours",
		"creator_reply_max_hours",
	}
}

// Values returns the numeric block in FeatureColumns order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		float64(f.MessageCount),
		f.Revenue,
		float64(f.PurchaseCount),
		f.PurchaseRate,
		f.DurationHours,
		f.MaxGapHours,
		float64(f.MessagesBeforeFirstPurchase),
		f.TimeToFirstPurchaseHours,
		f.DaysBetweenFirstLastPurchase,
		f.FanReplyMeanHours,
		f.FanReplyMaxHours,
		f.CreatorReplyMeanHours,
		f.CreatorReplyMaxHours,
	}
}
