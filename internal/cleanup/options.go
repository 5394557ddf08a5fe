// Package cleanup finds junk, low-quality and duplicate assets in a store and
// deletes them in bounded batches, or reports what it would delete.
package cleanup

import (
	"fmt"
	"strings"

	"github.com/dev-tams/assetsweep/internal/dedupe"
)

type Mode string

const (
	ModeJunk       Mode = "junk"
	ModeLowQuality Mode = "low_quality"
	ModeDuplicates Mode = "duplicates"
	ModePreview    Mode = "preview"
)

const (
	DefaultBatchSize        = 50
	DefaultQualityThreshold = 30
	DefaultMaxPreview       = 50
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")); m {
	case ModeJunk, ModeLowQuality, ModeDuplicates, ModePreview:
		return m, nil
	default:
		return "", fmt.Errorf("unknown cleanup mode %q", s)
	}
}

// Options controls one invocation. Fields irrelevant to a mode are ignored.
type Options struct {
	DryRun bool
	// MaxDeletions caps the candidates acted on. Matches past the cap are skipped.
	MaxDeletions int
	// BatchSize is the number of deletes issued together before the scan continues.
	BatchSize        int
	QualityThreshold int
	ExcludeJunk      bool
	KeepStrategy     dedupe.KeepStrategy
	// MaxPreview caps each category listing of a preview.
	MaxPreview int
}

// DefaultOptions returns the documented defaults for mode.
func DefaultOptions(mode Mode) Options {
	o := Options{
		BatchSize:        DefaultBatchSize,
		QualityThreshold: DefaultQualityThreshold,
		KeepStrategy:     dedupe.KeepHighestQuality,
	}
	switch mode {
	case ModeJunk:
		o.MaxDeletions = 1000
	case ModeLowQuality:
		o.MaxDeletions = 500
		o.ExcludeJunk = true
	case ModeDuplicates:
		o.MaxDeletions = 300
	case ModePreview:
		o.DryRun = true
		o.MaxPreview = DefaultMaxPreview
	}
	return o
}

func (o Options) normalized() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxDeletions < 0 {
		o.MaxDeletions = 0
	}
	if o.MaxPreview < 0 {
		o.MaxPreview = 0
	}
	if o.KeepStrategy == "" {
		o.KeepStrategy = dedupe.KeepFirst
	}
	return o
}
