// Package analytics summarizes quality, duplication and waste across a collection.
package analytics

import (
	"context"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dev-tams/assetsweep/internal/catalog"
	"github.com/dev-tams/assetsweep/internal/classify"
)

const (
	junkCriticalPercent       = 10
	lowQualityWarningPercent  = 15
	duplicateOptimizePercent  = 5
	wasteStorageNoteThreshold = 10 << 20
	topDomainLimit            = 10
)

type Priority string

const (
	PriorityCritical     Priority = "critical"
	PriorityWarning      Priority = "warning"
	PriorityOptimization Priority = "optimization"
	PriorityStorage      Priority = "storage"
)

type Recommendation struct {
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

type Distribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

type Waste struct {
	Bytes     int64  `json:"bytes"`
	Formatted string `json:"formatted"`
}

type Percentages struct {
	Junk       int `json:"junk"`
	LowQuality int `json:"lowQuality"`
	Duplicates int `json:"duplicates"`
}

type Report struct {
	TotalAssets         int              `json:"totalAssets"`
	JunkAssets          int              `json:"junkAssets"`
	LowQualityAssets    int              `json:"lowQualityAssets"`
	DuplicateAssets     int              `json:"duplicateAssets"`
	QualityDistribution Distribution     `json:"qualityDistribution"`
	Domains             map[string]int   `json:"domains"`
	TopDomains          []DomainCount    `json:"topDomains"`
	EstimatedWaste      Waste            `json:"estimatedWaste"`
	Percentages         Percentages      `json:"percentages"`
	Recommendations     []Recommendation `json:"recommendations"`
}

// Aggregator folds records into a Report. Duplicates are counted against a
// running set of seen signatures, so the first asset with a signature is
// never a duplicate. Not safe for concurrent use.
type Aggregator struct {
	total      int
	junk       int
	lowQuality int
	duplicates int
	dist       Distribution
	domains    map[string]int
	seen       map[string]struct{}
	waste      int64
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		domains: make(map[string]int),
		seen:    make(map[string]struct{}),
	}
}

// Add folds one record. Each asset adds its estimated size to the waste
// total at most once.
func (g *Aggregator) Add(rec catalog.Record) {
	a := rec.Asset
	g.total++

	if d := domainOf(a.Src); d != "" {
		g.domains[d]++
	}

	if classify.IsJunk(a) {
		g.junk++
		g.waste += classify.EstimateSize(a)
		return
	}

	wasted := false
	switch classify.GradeOf(classify.Score(a.Src)) {
	case classify.GradeExcellent:
		g.dist.Excellent++
	case classify.GradeGood:
		g.dist.Good++
	case classify.GradeFair:
		g.dist.Fair++
	default:
		g.dist.Poor++
		g.lowQuality++
		wasted = true
	}

	sig := classify.Signature(a)
	if _, dup := g.seen[sig]; dup {
		g.duplicates++
		wasted = true
	} else {
		g.seen[sig] = struct{}{}
	}

	if wasted {
		g.waste += classify.EstimateSize(a)
	}
}

// Report derives percentages and recommendations from what has been added.
func (g *Aggregator) Report() *Report {
	r := &Report{
		TotalAssets:         g.total,
		JunkAssets:          g.junk,
		LowQualityAssets:    g.lowQuality,
		DuplicateAssets:     g.duplicates,
		QualityDistribution: g.dist,
		Domains:             make(map[string]int, len(g.domains)),
		EstimatedWaste:      Waste{Bytes: g.waste, Formatted: classify.FormatBytes(g.waste)},
		Recommendations:     make([]Recommendation, 0),
	}
	for d, n := range g.domains {
		r.Domains[d] = n
	}
	r.TopDomains = topDomains(g.domains, topDomainLimit)

	if g.total == 0 {
		return r
	}
	r.Percentages = Percentages{
		Junk:       percent(g.junk, g.total),
		LowQuality: percent(g.lowQuality, g.total),
		Duplicates: percent(g.duplicates, g.total),
	}
	r.Recommendations = recommend(r)
	return r
}

func recommend(r *Report) []Recommendation {
	recs := make([]Recommendation, 0, 4)
	if r.Percentages.Junk > junkCriticalPercent {
		recs = append(recs, Recommendation{
			Priority: PriorityCritical,
			Title:    "High junk content",
			Message:  strconv.Itoa(r.Percentages.Junk) + "% of assets are junk or placeholders",
			Action:   "Run junk cleanup",
		})
	}
	if r.Percentages.LowQuality > lowQualityWarningPercent {
		recs = append(recs, Recommendation{
			Priority: PriorityWarning,
			Title:    "Many low quality assets",
			Message:  strconv.Itoa(r.Percentages.LowQuality) + "% of assets score as poor quality",
			Action:   "Run low-quality cleanup",
		})
	}
	if r.Percentages.Duplicates > duplicateOptimizePercent {
		recs = append(recs, Recommendation{
			Priority: PriorityOptimization,
			Title:    "Duplicate assets detected",
			Message:  strconv.Itoa(r.Percentages.Duplicates) + "% of assets look like duplicates",
			Action:   "Run duplicate cleanup",
		})
	}
	if r.EstimatedWaste.Bytes > wasteStorageNoteThreshold {
		recs = append(recs, Recommendation{
			Priority: PriorityStorage,
			Title:    "Reclaimable storage",
			Message:  r.EstimatedWaste.Formatted + " could be reclaimed",
			Action:   "Preview cleanup to review candidates",
		})
	}
	return recs
}

// Analyze scans every record under prefix once.
func Analyze(ctx context.Context, r catalog.Reader, prefix string, log zerolog.Logger) (*Report, error) {
	started := time.Now()
	agg := NewAggregator()
	_, err := catalog.Scan(ctx, r, prefix, log, func(rec catalog.Record) error {
		agg.Add(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	rep := agg.Report()

	log.Info().
		Int("total", rep.TotalAssets).
		Int("junk", rep.JunkAssets).
		Int("low_quality", rep.LowQualityAssets).
		Int("duplicates", rep.DuplicateAssets).
		Str("waste", rep.EstimatedWaste.Formatted).
		Dur("elapsed", time.Since(started)).
		Msg("analytics finished")
	return rep, nil
}

// domainOf returns the host of an absolute locator, or "" when it has none.
func domainOf(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func topDomains(counts map[string]int, limit int) []DomainCount {
	out := make([]DomainCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DomainCount{Domain: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
