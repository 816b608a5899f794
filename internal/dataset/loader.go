package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fan-insights-go/internal/types"
)

// column indexes resolved from the header row
type columns struct {
	fanID     int
	creatorID int
	timestamp int
	sender    int
	text      int
	purchase  int
	amount    int
	system    int
	churn     int
}

// Load reads a chat-log export and groups rows into one Conversation per
// (fan, creator) pair, ordered by timestamp. Columns are auto-detected by
// header heuristics so exports from different tools keep working.
func Load(path string) ([]types.Conversation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.fanID == -1 || cols.timestamp == -1 || cols.text == -1 {
		return nil, fmt.Errorf("required columns missing (fan id / timestamp / message)")
	}

	byKey := map[string]*types.Conversation{}
	var keys []string

	for i, r := range rows {
		if i == 0 {
			continue
		}
		fanID := cell(r, cols.fanID)
		if fanID == "" {
			continue
		}
		creatorID := cell(r, cols.creatorID)
		if creatorID == "" {
			creatorID = "default"
		}

		ts, err := parseTimestamp(cell(r, cols.timestamp))
		if err != nil {
			// rows without a usable timestamp are dropped quietly, same as
			// non-URL rows in older exports
			continue
		}

		msg := types.Message{
			Timestamp:      ts,
			Sender:         parseSender(cell(r, cols.sender)),
			Text:           cell(r, cols.text),
			Purchase:       parseBool(cell(r, cols.purchase)),
			PurchaseAmount: parseFloat(cell(r, cols.amount)),
			ChurnMarker:    parseBool(cell(r, cols.churn)),
			IsSystem:       parseBool(cell(r, cols.system)),
		}
		if msg.IsSystem {
			continue
		}
		if msg.Purchase && msg.PurchaseAmount == 0 {
			// older exports carry only the purchased flag; count it as one
			// revenue unit so purchase sums stay comparable
			msg.PurchaseAmount = 1
		}

		key := fanID + "_" + creatorID
		conv, ok := byKey[key]
		if !ok {
			conv = &types.Conversation{FanID: fanID, CreatorID: creatorID}
			byKey[key] = conv
			keys = append(keys, key)
		}
		conv.Messages = append(conv.Messages, msg)
	}

	sort.Strings(keys)
	out := make([]types.Conversation, 0, len(byKey))
	for _, key := range keys {
		conv := byKey[key]
		sort.SliceStable(conv.Messages, func(a, b int) bool {
			return conv.Messages[a].Timestamp.Before(conv.Messages[b].Timestamp)
		})
		out = append(out, *conv)
	}
	return out, nil
}

func detectColumns(header []string) columns {
	cols := columns{fanID: -1, creatorID: -1, timestamp: -1, sender: -1,
		text: -1, purchase: -1, amount: -1, system: -1, churn: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "fan") && strings.Contains(l, "id"):
			if cols.fanID == -1 {
				cols.fanID = i
			}
		case strings.Contains(l, "model") || strings.Contains(l, "creator"):
			if cols.creatorID == -1 {
				cols.creatorID = i
			}
		case strings.Contains(l, "datetime") || strings.Contains(l, "timestamp") || l == "time" || strings.Contains(l, "date"):
			if cols.timestamp == -1 {
				cols.timestamp = i
			}
		case strings.Contains(l, "sender") || strings.Contains(l, "from") || strings.Contains(l, "role"):
			if cols.sender == -1 {
				cols.sender = i
			}
		case strings.Contains(l, "message") || strings.Contains(l, "text") || strings.Contains(l, "body"):
			if cols.text == -1 {
				cols.text = i
			}
		case strings.Contains(l, "amount") || strings.Contains(l, "price") || strings.Contains(l, "revenue"):
			if cols.amount == -1 {
				cols.amount = i
			}
		case strings.Contains(l, "purchas") || strings.Contains(l, "paid"):
			if cols.purchase == -1 {
				cols.purchase = i
			}
		case strings.Contains(l, "system"):
			cols.system = i
		case strings.Contains(l, "churn"):
			cols.churn = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01-02-06 15:04",
	"1/2/06 15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	// excelize returns raw serials when the cell has no date format
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if ts, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func parseSender(s string) types.Sender {
	switch strings.ToLower(s) {
	case "model", "creator", "agent", "account":
		return types.SenderCreator
	default:
		return types.SenderFan
	}
}

func parseBool(s string) bool {
	switch strings.ToUpper(s) {
	case "TRUE", "1", "YES", "Y":
		return true
	default:
		return false
	}
}

func parseFloat(s string) float64 {
	s = strings.TrimPrefix(s, "$")
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}
