package asset

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// wireAsset holds each field undecoded so one badly typed value only loses
// that field, not the record.
type wireAsset struct {
	ID           json.RawMessage `json:"id"`
	DisplayName  json.RawMessage `json:"displayName"`
	Src          json.RawMessage `json:"src"`
	FileSize     json.RawMessage `json:"fileSize"`
	Dimensions   json.RawMessage `json:"dimensions"`
	LastModified json.RawMessage `json:"lastModified"`
	CreatedAt    json.RawMessage `json:"createdAt"`
	UsageCount   json.RawMessage `json:"usageCount"`
}

type wireDimensions struct {
	Width  json.RawMessage `json:"width"`
	Height json.RawMessage `json:"height"`
}

// UnmarshalJSON requires a JSON object. Fields of the wrong type decode as absent.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var w wireAsset
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = Asset{
		ID:           looseString(w.ID),
		DisplayName:  looseString(w.DisplayName),
		Src:          looseString(w.Src),
		FileSize:     looseInt(w.FileSize),
		Dimensions:   looseDimensions(w.Dimensions),
		LastModified: looseTimestamp(w.LastModified),
		CreatedAt:    looseTimestamp(w.CreatedAt),
	}
	if n := looseInt(w.UsageCount); n != nil && *n <= math.MaxInt32 && *n >= math.MinInt32 {
		v := int(*n)
		a.UsageCount = &v
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// looseString accepts strings and numbers (ids are often numeric).
func looseString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// looseInt accepts numbers and numeric strings, truncating fractions.
func looseInt(raw json.RawMessage) *int64 {
	if isNull(raw) {
		return nil
	}
	text := string(bytes.TrimSpace(raw))
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(math.Floor(f))
	return &n
}

func looseDimensions(raw json.RawMessage) *Dimensions {
	if isNull(raw) {
		return nil
	}
	var w wireDimensions
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	width, height := looseInt(w.Width), looseInt(w.Height)
	if width == nil && height == nil {
		return nil
	}
	d := &Dimensions{}
	if width != nil {
		d.Width = *width
	}
	if height != nil {
		d.Height = *height
	}
	return d
}

func looseTimestamp(raw json.RawMessage) *Timestamp {
	if isNull(raw) {
		return nil
	}
	ts := &Timestamp{}
	_ = ts.UnmarshalJSON(raw)
	return ts
}
