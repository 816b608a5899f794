package segment

import (
	"errors"
	"testing"
	"time"

	"fan-insights-go/internal/types"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func msg(offset time.Duration, sender types.Sender, opts ...func(*types.Message)) types.Message {
	m := types.Message{Timestamp: base.Add(offset), Sender: sender, Text: "hi"}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func purchase(amount float64) func(*types.Message) {
	return func(m *types.Message) {
		m.Purchase = true
		m.PurchaseAmount = amount
	}
}

func churn() func(*types.Message) {
	return func(m *types.Message) { m.ChurnMarker = true }
}

func collect(conv types.Conversation, inactivity time.Duration) []types.Stage {
	var out []types.Stage
	for st := range Stages(conv, inactivity) {
		out = append(out, st)
	}
	return out
}

func TestStagesPartitionInvariant(t *testing.T) {
	conv := types.Conversation{
		FanID:     "f1",
		CreatorID: "c1",
		Messages: []types.Message{
			msg(0, types.SenderFan),
			msg(1*time.Hour, types.SenderCreator),
			msg(2*time.Hour, types.SenderFan, purchase(10)),
			msg(3*time.Hour, types.SenderFan),
			msg(5*time.Hour, types.SenderFan, purchase(20)),
			msg(100*time.Hour, types.SenderFan), // past the 72h threshold
			msg(101*time.Hour, types.SenderCreator),
		},
	}

	stages := collect(conv, 72*time.Hour)
	if len(stages) != 3 {
		t.Fatalf("stage count: want=3 got=%d", len(stages))
	}

	total := 0
	for i, st := range stages {
		if st.Index != types.StageIndex(i+1) {
			t.Fatalf("stage %d index: want=%d got=%d", i, i+1, st.Index)
		}
		total += len(st.Messages)
		if i > 0 {
			prev := stages[i-1]
			if !prev.End.Before(st.Start) && !prev.End.Equal(st.Start) {
				t.Fatalf("stage %d starts before stage %d ends", i+1, i)
			}
		}
	}
	if total != len(conv.Messages) {
		t.Fatalf("coverage: want=%d messages got=%d", len(conv.Messages), total)
	}

	// union must be the original sequence in order
	idx := 0
	for _, st := range stages {
		for _, m := range st.Messages {
			if !m.Timestamp.Equal(conv.Messages[idx].Timestamp) {
				t.Fatalf("message %d out of place", idx)
			}
			idx++
		}
	}
}

func TestFirstPurchaseClosesAcquisition(t *testing.T) {
	conv := types.Conversation{
		FanID: "f1", CreatorID: "c1",
		Messages: []types.Message{
			msg(0, types.SenderFan),
			msg(1*time.Hour, types.SenderFan, purchase(5)),
			msg(2*time.Hour, types.SenderFan),
		},
	}
	stages := collect(conv, 72*time.Hour)
	if len(stages) != 2 {
		t.Fatalf("stage count: want=2 got=%d", len(stages))
	}
	if got := len(stages[0].Messages); got != 2 {
		t.Fatalf("acquisition includes the purchase message: want=2 got=%d", got)
	}
	if stages[1].Index != types.StageMonetization {
		t.Fatalf("second stage: want=%d got=%d", types.StageMonetization, stages[1].Index)
	}
}

func TestZeroPurchasesSingleStage(t *testing.T) {
	conv := types.Conversation{
		FanID: "F", CreatorID: "c1",
		Messages: []types.Message{
			msg(0, types.SenderFan),
			msg(20*time.Minute, types.SenderCreator),
			msg(40*time.Minute, types.SenderFan),
			msg(80*time.Minute, types.SenderFan),
			msg(2*time.Hour, types.SenderCreator),
		},
	}
	stages := collect(conv, 72*time.Hour)
	if len(stages) != 1 {
		t.Fatalf("stage count: want=1 got=%d", len(stages))
	}
	if stages[0].Index != types.StageAcquisition {
		t.Fatalf("stage index: want=1 got=%d", stages[0].Index)
	}
	if len(stages[0].Messages) != 5 {
		t.Fatalf("messages: want=5 got=%d", len(stages[0].Messages))
	}
}

func TestEmptyConversationYieldsStageOne(t *testing.T) {
	conv := types.Conversation{FanID: "f1", CreatorID: "c1"}
	stages := collect(conv, 72*time.Hour)
	if len(stages) != 1 {
		t.Fatalf("stage count: want=1 got=%d", len(stages))
	}
	if stages[0].Index != types.StageAcquisition || len(stages[0].Messages) != 0 {
		t.Fatalf("want empty acquisition stage, got index=%d messages=%d", stages[0].Index, len(stages[0].Messages))
	}
}

func TestChurnMarkerClosesMonetization(t *testing.T) {
	conv := types.Conversation{
		FanID: "f1", CreatorID: "c1",
		Messages: []types.Message{
			msg(0, types.SenderFan, purchase(10)),
			msg(1*time.Hour, types.SenderFan),
			msg(2*time.Hour, types.SenderFan, churn()),
			msg(3*time.Hour, types.SenderFan),
		},
	}
	stages := collect(conv, 72*time.Hour)
	if len(stages) != 3 {
		t.Fatalf("stage count: want=3 got=%d", len(stages))
	}
	// the marker message itself closes the monetization stage
	if got := len(stages[1].Messages); got != 2 {
		t.Fatalf("monetization messages: want=2 got=%d", got)
	}
	if got := len(stages[2].Messages); got != 1 {
		t.Fatalf("retention messages: want=1 got=%d", got)
	}
}

func TestInactivityRightAfterPurchaseSkipsMonetization(t *testing.T) {
	conv := types.Conversation{
		FanID: "f1", CreatorID: "c1",
		Messages: []types.Message{
			msg(0, types.SenderFan, purchase(10)),
			msg(200*time.Hour, types.SenderFan),
		},
	}
	stages := collect(conv, 72*time.Hour)
	if len(stages) != 2 {
		t.Fatalf("stage count: want=2 got=%d", len(stages))
	}
	if stages[1].Index != types.StageRetention {
		t.Fatalf("second stage: want=%d got=%d", types.StageRetention, stages[1].Index)
	}
}

func TestValidateRejectsNonMonotonic(t *testing.T) {
	conv := types.Conversation{
		FanID: "f1", CreatorID: "c1",
		Messages: []types.Message{
			msg(2*time.Hour, types.SenderFan),
			msg(1*time.Hour, types.SenderFan),
		},
	}
	err := Validate(conv)
	if err == nil {
		t.Fatalf("expected error")
	}
	var malformed *MalformedConversationError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedConversationError, got %T", err)
	}
	if malformed.Index != 1 {
		t.Fatalf("malformed index: want=1 got=%d", malformed.Index)
	}
}

func TestStagesRestartable(t *testing.T) {
	conv := types.Conversation{
		FanID: "f1", CreatorID: "c1",
		Messages: []types.Message{
			msg(0, types.SenderFan),
			msg(1*time.Hour, types.SenderFan, purchase(10)),
			msg(2*time.Hour, types.SenderFan),
		},
	}
	seq := Stages(conv, 72*time.Hour)
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != second {
		t.Fatalf("restart: want=%d stages got=%d", first, second)
	}
}
