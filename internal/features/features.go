// Package features turns one stage into its fixed-schema numeric record.
// Extraction is pure and deterministic: identical input yields bit-identical
// output, which downstream caching and hybrid embeddings rely on.
package features

import (
	"fan-insights-go/internal/types"
)

const hours = 3600.0

// Extract computes the FeatureVector for one stage. No side effects, no
// external calls. Rates over an empty stage are 0, not NaN;
// TimeToFirstPurchaseHours is -1 when the stage holds no purchase.
func Extract(stage types.Stage) types.FeatureVector {
	fv := types.FeatureVector{
		FanCreatorID:             stage.FanCreatorID,
		Stage:                    stage.Index,
		MessageCount:             len(stage.Messages),
		TimeToFirstPurchaseHours: -1,
	}

	msgs := stage.Messages
	if len(msgs) == 0 {
		return fv
	}

	firstPurchase := -1
	lastPurchase := -1
	for i, m := range msgs {
		if m.Purchase {
			fv.PurchaseCount++
			fv.Revenue += m.PurchaseAmount
			if firstPurchase == -1 {
				firstPurchase = i
			}
			lastPurchase = i
		}
	}

	fv.PurchaseRate = float64(fv.PurchaseCount) / float64(len(msgs))
	fv.DurationHours = msgs[len(msgs)-1].Timestamp.Sub(msgs[0].Timestamp).Seconds() / hours

	for i := 1; i < len(msgs); i++ {
		gap := msgs[i].Timestamp.Sub(msgs[i-1].Timestamp).Seconds() / hours
		if gap > fv.MaxGapHours {
			fv.MaxGapHours = gap
		}
	}

	if firstPurchase >= 0 {
		fv.MessagesBeforeFirstPurchase = firstPurchase
		fv.TimeToFirstPurchaseHours = msgs[firstPurchase].Timestamp.Sub(msgs[0].Timestamp).Seconds() / hours
		if lastPurchase > firstPurchase {
			fv.DaysBetweenFirstLastPurchase = msgs[lastPurchase].Timestamp.Sub(msgs[firstPurchase].Timestamp).Hours() / 24
		}
	} else {
		fv.MessagesBeforeFirstPurchase = len(msgs)
	}

	fv.FanReplyMeanHours, fv.FanReplyMaxHours = replyLatency(msgs, types.SenderFan)
	fv.CreatorReplyMeanHours, fv.CreatorReplyMaxHours = replyLatency(msgs, types.SenderCreator)

	return fv
}

// replyLatency measures how long sender takes to answer the other side:
// the gap from each sender-authored message back to the preceding message
// authored by anyone else.
func replyLatency(msgs []types.Message, sender types.Sender) (mean, max float64) {
	var sum float64
	var n int
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Sender != sender || msgs[i-1].Sender == sender {
			continue
		}
		gap := msgs[i].Timestamp.Sub(msgs[i-1].Timestamp).Seconds() / hours
		sum += gap
		if gap > max {
			max = gap
		}
		n++
	}
	if n > 0 {
		mean = sum / float64(n)
	}
	return mean, max
}
