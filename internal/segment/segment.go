// Package segment splits a conversation into purchase-milestone stages:
// acquisition (up to and including the first purchase), monetization (until
// an inactivity gap or an explicit churn marker), retention (the remainder).
package segment

import (
	"fmt"
	"iter"
	"time"

	"fan-insights-go/internal/types"
)

// MalformedConversationError reports non-monotonic timestamps. The
// conversation is skipped, never repaired.
type MalformedConversationError struct {
	FanCreatorID string
	Index        int // first out-of-order message
}

func (e *MalformedConversationError) Error() string {
	return fmt.Sprintf("malformed conversation %s: timestamp out of order at message %d", e.FanCreatorID, e.Index)
}

// Validate checks the timestamp ordering invariant the segmenter relies on.
func Validate(conv types.Conversation) error {
	for i := 1; i < len(conv.Messages); i++ {
		if conv.Messages[i].Timestamp.Before(conv.Messages[i-1].Timestamp) {
			return &MalformedConversationError{FanCreatorID: conv.FanCreatorID(), Index: i}
		}
	}
	return nil
}

// Stages returns a lazy, restartable sequence of stages covering the whole
// conversation in order, with no gaps and no overlaps. A conversation with
// zero purchases yields exactly one acquisition stage, even when empty.
// Callers must Validate first; Stages assumes ordered timestamps.
func Stages(conv types.Conversation, inactivity time.Duration) iter.Seq[types.Stage] {
	return func(yield func(types.Stage) bool) {
		msgs := conv.Messages
		key := conv.FanCreatorID()

		firstPurchase := -1
		for i, m := range msgs {
			if m.Purchase {
				firstPurchase = i
				break
			}
		}

		if firstPurchase == -1 {
			yield(makeStage(key, types.StageAcquisition, msgs))
			return
		}

		// milestone messages close the earlier stage
		if !yield(makeStage(key, types.StageAcquisition, msgs[:firstPurchase+1])) {
			return
		}

		rest := msgs[firstPurchase+1:]
		if len(rest) == 0 {
			return
		}

		split := len(rest)
		prev := msgs[firstPurchase]
		for j := range rest {
			if rest[j].Timestamp.Sub(prev.Timestamp) > inactivity {
				split = j
				break
			}
			if rest[j].ChurnMarker {
				split = j + 1
				break
			}
			prev = rest[j]
		}

		if split > 0 {
			if !yield(makeStage(key, types.StageMonetization, rest[:split])) {
				return
			}
		}
		if split < len(rest) {
			yield(makeStage(key, types.StageRetention, rest[split:]))
		}
	}
}

func makeStage(key string, idx types.StageIndex, msgs []types.Message) types.Stage {
	st := types.Stage{Index: idx, FanCreatorID: key, Messages: msgs}
	if len(msgs) > 0 {
		st.Start = msgs[0].Timestamp
		st.End = msgs[len(msgs)-1].Timestamp
	}
	return st
}
