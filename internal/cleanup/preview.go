package cleanup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dev-tams/assetsweep/internal/catalog"
	"github.com/dev-tams/assetsweep/internal/classify"
	"github.com/dev-tams/assetsweep/internal/dedupe"
	"github.com/dev-tams/assetsweep/internal/metrics"
)

// Preview runs junk, low-quality and duplicate detection over one scan
// without deleting anything. Junk assets are not re-listed as low quality.
func (r *Runner) Preview(ctx context.Context, opts Options) (*PreviewResult, error) {
	opts = opts.normalized()
	started := r.now()
	res := &PreviewResult{
		RunID:      uuid.NewString(),
		Mode:       ModePreview,
		Junk:       Category{Items: make([]Candidate, 0)},
		LowQuality: Category{Items: make([]Candidate, 0)},
		Duplicates: Category{Items: make([]Candidate, 0)},
	}
	log := r.log.With().Str("run_id", res.RunID).Str("mode", string(ModePreview)).Logger()

	sizes := make(map[string]int64)
	groups := dedupe.NewGroups()
	stats, err := catalog.Scan(ctx, r.store, r.prefix, log, func(rec catalog.Record) error {
		groups.Add(dedupe.Member{Key: rec.Key, Asset: rec.Asset})

		if classify.IsJunk(rec.Asset) {
			c := newCandidate(rec, classify.JunkReason(rec.Asset))
			res.Junk.add(c, opts.MaxPreview)
			sizes[c.Key] = c.EstimatedSize
			return nil
		}
		if score := classify.Score(rec.Asset.Src); score < opts.QualityThreshold {
			c := newCandidate(rec, fmt.Sprintf("Low quality score: %d", score))
			c.QualityScore = &score
			res.LowQuality.add(c, opts.MaxPreview)
			sizes[c.Key] = c.EstimatedSize
		}
		return nil
	})

	var listErr *catalog.ListError
	if errors.As(err, &listErr) {
		r.metrics.ObserveRun(metrics.RunReport{Mode: string(ModePreview), DryRun: true, Failed: true})
		return nil, err
	}
	res.Scanned = stats.Scanned

	if err == nil {
		dups := groups.Duplicates()
		res.DuplicateGroups = len(dups)
		for _, g := range dups {
			for _, c := range duplicateCandidates(g, opts.KeepStrategy) {
				res.Duplicates.add(c, opts.MaxPreview)
				sizes[c.Key] = c.EstimatedSize
			}
		}
	}

	for _, n := range sizes {
		res.PotentialSavingsBytes += n
	}
	res.TotalCandidates = len(sizes)
	res.PotentialSavings = classify.FormatBytes(res.PotentialSavingsBytes)
	for _, c := range []*Category{&res.Junk, &res.LowQuality, &res.Duplicates} {
		c.EstimatedSize = classify.FormatBytes(c.EstimatedBytes)
	}
	elapsed := r.now().Sub(started)
	res.DurationMs = elapsed.Milliseconds()

	r.metrics.ObserveRun(metrics.RunReport{
		Mode:     string(ModePreview),
		DryRun:   true,
		Scanned:  res.Scanned,
		Duration: elapsed,
		Failed:   err != nil,
	})
	log.Info().
		Int("scanned", res.Scanned).
		Int("junk", res.Junk.Count).
		Int("low_quality", res.LowQuality.Count).
		Int("duplicates", res.Duplicates.Count).
		Str("potential_savings", res.PotentialSavings).
		Msg("preview finished")

	return res, err
}
