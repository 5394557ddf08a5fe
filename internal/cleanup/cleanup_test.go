package cleanup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/assetsweep/internal/asset"
	"github.com/dev-tams/assetsweep/internal/catalog"
	"github.com/dev-tams/assetsweep/internal/dedupe"
	"github.com/dev-tams/assetsweep/internal/metrics"
	"github.com/dev-tams/assetsweep/internal/storage/storagetest"
)

const prefix = "asset:"

func put(st *storagetest.Store, a asset.Asset) {
	st.PutJSON(prefix+a.ID, a)
}

func junkStore(n int) *storagetest.Store {
	st := storagetest.New()
	put(st, asset.Asset{ID: "g1", DisplayName: "Hero banner", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg"})
	for i := 1; i <= n; i++ {
		put(st, asset.Asset{ID: "j" + string(rune('0'+i)), DisplayName: "x"})
	}
	return st
}

func ids(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestJunkCapCountsOverflowAsSkipped(t *testing.T) {
	st := junkStore(5)
	opts := DefaultOptions(ModeJunk)
	opts.MaxDeletions = 3
	opts.BatchSize = 2

	res, err := NewRunner(st, prefix).Junk(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Scanned)
	assert.Equal(t, 5, res.Found)
	assert.Equal(t, 3, res.Deleted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []string{"j1", "j2", "j3"}, ids(res.DeletedAssets))
	assert.Equal(t, []string{"asset:g1", "asset:j4", "asset:j5"}, st.Keys())
	assert.Equal(t, int64(75_000), res.StorageSavedBytes)
	assert.Equal(t, "Missing source URL", res.DeletedAssets[0].Reason)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, ModeJunk, res.Mode)
}

func TestDryRunLeavesStoreUntouched(t *testing.T) {
	modes := map[Mode]func(*Runner, context.Context, Options) (*Result, error){
		ModeJunk:       (*Runner).Junk,
		ModeLowQuality: (*Runner).LowQuality,
		ModeDuplicates: (*Runner).Duplicates,
	}
	for mode, fn := range modes {
		t.Run(string(mode), func(t *testing.T) {
			st := junkStore(3)
			put(st, asset.Asset{ID: "k1", DisplayName: "Copy", Src: "/copy.jpg"})
			put(st, asset.Asset{ID: "k2", DisplayName: "Copy", Src: "/copy.jpg"})
			before := st.Keys()

			opts := DefaultOptions(mode)
			opts.DryRun = true
			res, err := fn(NewRunner(st, prefix), context.Background(), opts)
			require.NoError(t, err)

			assert.Equal(t, before, st.Keys())
			assert.Empty(t, st.Deletes())
			assert.True(t, res.DryRun)
			assert.Positive(t, res.Found)
			assert.Equal(t, res.Found, res.Deleted)
			assert.Len(t, res.DeletedAssets, res.Found)
		})
	}
}

func TestDeleteFailuresAreCollected(t *testing.T) {
	st := junkStore(5)
	st.DeleteErr = func(key string) error {
		if key == "asset:j2" {
			return errors.New("boom")
		}
		return nil
	}

	res, err := NewRunner(st, prefix).Junk(context.Background(), DefaultOptions(ModeJunk))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Deleted)
	assert.Equal(t, []ItemError{{ID: "j2", Key: "asset:j2", Error: "boom"}}, res.Errors)
	assert.Equal(t, []string{"asset:g1", "asset:j2"}, st.Keys())
}

func TestLowQualityHonoursExcludeJunk(t *testing.T) {
	newStore := func() *storagetest.Store {
		st := storagetest.New()
		put(st, asset.Asset{ID: "junk1", DisplayName: "Placeholder", Src: "https://example.com/placeholder.jpg"})
		put(st, asset.Asset{ID: "lq1", DisplayName: "Thumb", Src: "/img/thumb.jpg"})
		put(st, asset.Asset{ID: "ok1", DisplayName: "Banner", Src: "https://cdn.other.net/banner.jpg"})
		return st
	}

	opts := DefaultOptions(ModeLowQuality)
	res, err := NewRunner(newStore(), prefix).LowQuality(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"lq1"}, ids(res.DeletedAssets))
	require.NotNil(t, res.DeletedAssets[0].QualityScore)
	assert.Equal(t, 10, *res.DeletedAssets[0].QualityScore)
	assert.Equal(t, "Low quality score: 10", res.DeletedAssets[0].Reason)

	opts.ExcludeJunk = false
	res, err = NewRunner(newStore(), prefix).LowQuality(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"junk1", "lq1"}, ids(res.DeletedAssets))
}

func TestDuplicatesKeepsHigherScoringLongLocator(t *testing.T) {
	st := storagetest.New()
	put(st, asset.Asset{ID: "d1", DisplayName: "Hero", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg?v=1"})
	put(st, asset.Asset{ID: "d2", DisplayName: "Hero", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg?format=webp"})

	res, err := NewRunner(st, prefix).Duplicates(context.Background(), DefaultOptions(ModeDuplicates))
	require.NoError(t, err)

	assert.Equal(t, 1, res.DuplicateGroups)
	require.Len(t, res.DeletedAssets, 1)
	assert.Equal(t, "d1", res.DeletedAssets[0].ID)
	assert.Equal(t, "d2", res.DeletedAssets[0].KeptID)
	assert.Equal(t, "Duplicate of d2", res.DeletedAssets[0].Reason)
	assert.Equal(t, []string{"asset:d2"}, st.Keys())
}

func TestDuplicatesTieKeepsFirstSeen(t *testing.T) {
	st := storagetest.New()
	put(st, asset.Asset{ID: "d1", DisplayName: "A", Src: "https://cdn.other.net/a.jpg"})
	put(st, asset.Asset{ID: "d2", DisplayName: "A", Src: "https://cdn.other.net/a.jpg"})

	res, err := NewRunner(st, prefix).Duplicates(context.Background(), DefaultOptions(ModeDuplicates))
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, ids(res.DeletedAssets))
}

func TestDuplicatesCapIsSharedAcrossGroupsInScanOrder(t *testing.T) {
	st := storagetest.New()
	for _, id := range []string{"a1", "a2", "a3"} {
		put(st, asset.Asset{ID: id, DisplayName: "Alpha", Src: "/alpha.jpg"})
	}
	for _, id := range []string{"b1", "b2", "b3"} {
		put(st, asset.Asset{ID: id, DisplayName: "Beta", Src: "/beta.jpg"})
	}

	opts := DefaultOptions(ModeDuplicates)
	opts.MaxDeletions = 3
	opts.KeepStrategy = dedupe.KeepFirst
	res, err := NewRunner(st, prefix).Duplicates(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, res.DuplicateGroups)
	assert.Equal(t, 4, res.Found)
	assert.Equal(t, []string{"a2", "a3", "b2"}, ids(res.DeletedAssets))
	assert.Equal(t, 1, res.Skipped)
}

func TestPreviewListsEachCategoryWithoutDeleting(t *testing.T) {
	st := storagetest.New()
	put(st, asset.Asset{ID: "j1", DisplayName: "x"})
	put(st, asset.Asset{ID: "j2", Src: "/y.jpg"})
	put(st, asset.Asset{ID: "lq1", DisplayName: "Thumb", Src: "/img/thumb.jpg"})
	put(st, asset.Asset{ID: "ok1", DisplayName: "Banner", Src: "https://cdn.other.net/banner.jpg"})
	put(st, asset.Asset{ID: "d1", DisplayName: "Hero", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg?v=1"})
	put(st, asset.Asset{ID: "d2", DisplayName: "Hero", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg?format=webp"})
	before := st.Keys()

	opts := DefaultOptions(ModePreview)
	opts.MaxPreview = 1
	res, err := NewRunner(st, prefix).Preview(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, before, st.Keys())
	assert.Empty(t, st.Deletes())
	assert.Equal(t, 6, res.Scanned)
	assert.Equal(t, 2, res.Junk.Count)
	assert.Len(t, res.Junk.Items, 1)
	assert.Equal(t, 1, res.LowQuality.Count)
	assert.Equal(t, 1, res.Duplicates.Count)
	assert.Equal(t, "d1", res.Duplicates.Items[0].ID)
	assert.Equal(t, 4, res.TotalCandidates)
	assert.Positive(t, res.PotentialSavingsBytes)
}

func TestListFailureReturnsNoResult(t *testing.T) {
	st := junkStore(2)
	st.ListErr = errors.New("unreachable")

	res, err := NewRunner(st, prefix).Junk(context.Background(), DefaultOptions(ModeJunk))
	assert.Nil(t, res)
	var le *catalog.ListError
	assert.True(t, errors.As(err, &le))
	assert.Len(t, st.Keys(), 3)
}

func TestCancelledContextReturnsPartialResult(t *testing.T) {
	st := junkStore(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewRunner(st, prefix).Junk(ctx, DefaultOptions(ModeJunk))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Deleted)
	assert.Len(t, st.Keys(), 3)
}

func TestDeleteRateStillDeletesEverything(t *testing.T) {
	st := junkStore(3)
	res, err := NewRunner(st, prefix, WithDeleteRate(1000)).Junk(context.Background(), DefaultOptions(ModeJunk))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted)
}

func TestRunsAreObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := junkStore(2)
	_, err := NewRunner(st, prefix, WithMetrics(metrics.New(reg))).Junk(context.Background(), DefaultOptions(ModeJunk))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["assetsweep_runs_total"])
	assert.True(t, names["assetsweep_assets_deleted_total"])
}

type countingDeleter struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	keys     []string
}

func (d *countingDeleter) Delete(_ context.Context, key string) error {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	d.mu.Lock()
	d.keys = append(d.keys, key)
	d.mu.Unlock()
	return nil
}

func TestBatchBoundsConcurrencyAndSettlesInOrder(t *testing.T) {
	d := &countingDeleter{}
	var settled []string
	b := newBatch(d, nil, 2, func(c Candidate, err error) {
		require.NoError(t, err)
		settled = append(settled, c.Key)
	})

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		b.add(context.Background(), Candidate{Key: k})
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, settled)
	b.flush(context.Background())

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, settled)
	assert.LessOrEqual(t, d.peak.Load(), int32(2))
	assert.Len(t, d.keys, 5)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("low-quality")
	require.NoError(t, err)
	assert.Equal(t, ModeLowQuality, m)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}

func TestJunkReachesRecordsWithLooselyTypedFields(t *testing.T) {
	st := storagetest.New()
	st.PutRaw(prefix+"a", []byte(`{"id":"a","displayName":"placeholder","src":"https://example.com/a.jpg","fileSize":"2048"}`))
	st.PutRaw(prefix+"b", []byte(`{"id":"b","displayName":"placeholder","src":"https://example.com/b.jpg","dimensions":{"width":640.5,"height":480}}`))
	st.PutRaw(prefix+"c", []byte(`{"id":"c","displayName":"placeholder","src":"https://example.com/c.jpg","usageCount":"3"}`))

	res, err := NewRunner(st, prefix).Junk(context.Background(), DefaultOptions(ModeJunk))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 3, res.Deleted)
	assert.Empty(t, st.Keys())
	assert.Equal(t, int64(2048), res.DeletedAssets[0].EstimatedSize)
	assert.Equal(t, int64(640*480*3/2), res.DeletedAssets[1].EstimatedSize)
}
