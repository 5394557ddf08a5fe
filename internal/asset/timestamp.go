package asset

import (
	"bytes"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Timestamp accepts RFC 3339 strings, numeric strings or JSON numbers
// (epoch milliseconds). Unparseable values decode to the zero time so a
// bad timestamp never rejects the whole record.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.UTC()}
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			ts.Time = time.Time{}
			return nil
		}
		ts.Time = parseTimestampString(s)
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		ts.Time = time.Time{}
		return nil
	}
	ts.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

func parseTimestampString(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
