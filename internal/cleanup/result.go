package cleanup

import (
	"github.com/dev-tams/assetsweep/internal/asset"
	"github.com/dev-tams/assetsweep/internal/catalog"
	"github.com/dev-tams/assetsweep/internal/classify"
)

// Candidate summarizes an asset selected for deletion.
type Candidate struct {
	ID            string `json:"id"`
	Key           string `json:"key"`
	Name          string `json:"name,omitempty"`
	Src           string `json:"src,omitempty"`
	Reason        string `json:"reason"`
	EstimatedSize int64  `json:"estimatedSize"`
	QualityScore  *int   `json:"qualityScore,omitempty"`
	KeptID        string `json:"keptId,omitempty"`
}

func newCandidate(rec catalog.Record, reason string) Candidate {
	a := rec.Asset
	if a == nil {
		a = &asset.Asset{}
	}
	return Candidate{
		ID:            a.ID,
		Key:           rec.Key,
		Name:          a.DisplayName,
		Src:           a.Src,
		Reason:        reason,
		EstimatedSize: classify.EstimateSize(a),
	}
}

// ItemError is one delete that failed. It never fails the invocation.
type ItemError struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

type Result struct {
	RunID  string `json:"runId"`
	Mode   Mode   `json:"mode"`
	DryRun bool   `json:"dryRun"`

	Scanned int `json:"scanned"`
	// Found counts every match before the deletion cap is applied.
	Found           int `json:"found"`
	DuplicateGroups int `json:"duplicateGroups,omitempty"`
	Deleted         int `json:"deleted"`
	Skipped         int `json:"skipped"`

	Errors            []ItemError `json:"errors"`
	DeletedAssets     []Candidate `json:"deletedAssets"`
	StorageSaved      string      `json:"storageSaved"`
	StorageSavedBytes int64       `json:"storageSavedBytes"`
	DurationMs        int64       `json:"durationMs"`
}

func newResult(runID string, mode Mode, dryRun bool) *Result {
	return &Result{
		RunID:         runID,
		Mode:          mode,
		DryRun:        dryRun,
		Errors:        make([]ItemError, 0),
		DeletedAssets: make([]Candidate, 0),
	}
}

// Category is one section of a preview.
type Category struct {
	Count          int         `json:"count"`
	EstimatedBytes int64       `json:"estimatedBytes"`
	EstimatedSize  string      `json:"estimatedSize"`
	Items          []Candidate `json:"items"`
}

func (c *Category) add(cand Candidate, limit int) {
	c.Count++
	c.EstimatedBytes += cand.EstimatedSize
	if len(c.Items) < limit {
		c.Items = append(c.Items, cand)
	}
}

type PreviewResult struct {
	RunID   string `json:"runId"`
	Mode    Mode   `json:"mode"`
	Scanned int    `json:"scanned"`

	Junk       Category `json:"junk"`
	LowQuality Category `json:"lowQuality"`
	Duplicates Category `json:"duplicates"`

	DuplicateGroups int `json:"duplicateGroups"`
	// TotalCandidates counts distinct keys across the categories.
	TotalCandidates       int    `json:"totalCandidates"`
	PotentialSavings      string `json:"potentialSavings"`
	PotentialSavingsBytes int64  `json:"potentialSavingsBytes"`
	DurationMs            int64  `json:"durationMs"`
}
