package asset

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrEmptyRecord is returned by Decode when the stored value is empty or JSON null.
var ErrEmptyRecord = errors.New("empty asset record")

// Asset is one media record as persisted in the store. Every field except ID
// may be absent: strings use "" for absent, numbers and structs use nil.
type Asset struct {
	ID           string      `json:"id"`
	DisplayName  string      `json:"displayName,omitempty"`
	Src          string      `json:"src,omitempty"`
	FileSize     *int64      `json:"fileSize,omitempty"`
	Dimensions   *Dimensions `json:"dimensions,omitempty"`
	LastModified *Timestamp  `json:"lastModified,omitempty"`
	CreatedAt    *Timestamp  `json:"createdAt,omitempty"`
	UsageCount   *int        `json:"usageCount,omitempty"`
}

type Dimensions struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Decode parses a stored value. Values that are empty or null yield ErrEmptyRecord.
func Decode(raw []byte) (*Asset, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyRecord
	}

	var a Asset
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	return &a, nil
}

// Name returns the display name and whether one is present.
func (a *Asset) Name() (string, bool) {
	if a == nil || a.DisplayName == "" {
		return "", false
	}
	return a.DisplayName, true
}

// Source returns the source locator and whether one is present.
func (a *Asset) Source() (string, bool) {
	if a == nil || a.Src == "" {
		return "", false
	}
	return a.Src, true
}

// DeclaredSize returns the stored byte count. Zero or negative counts are treated as unknown.
func (a *Asset) DeclaredSize() (int64, bool) {
	if a == nil || a.FileSize == nil || *a.FileSize <= 0 {
		return 0, false
	}
	return *a.FileSize, true
}

// PixelArea returns width*height when both are known and positive.
func (a *Asset) PixelArea() (int64, bool) {
	if a == nil || a.Dimensions == nil {
		return 0, false
	}
	d := a.Dimensions
	if d.Width <= 0 || d.Height <= 0 {
		return 0, false
	}
	return d.Width * d.Height, true
}

// Recency is lastModified, falling back to createdAt, falling back to 0,
// in milliseconds since the epoch.
func (a *Asset) Recency() int64 {
	if a == nil {
		return 0
	}
	if a.LastModified != nil && !a.LastModified.IsZero() {
		return a.LastModified.UnixMilli()
	}
	if a.CreatedAt != nil && !a.CreatedAt.IsZero() {
		return a.CreatedAt.UnixMilli()
	}
	return 0
}
