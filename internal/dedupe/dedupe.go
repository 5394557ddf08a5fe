// Package dedupe groups assets by signature and picks the one to keep.
package dedupe

import (
	"strings"

	"github.com/dev-tams/assetsweep/internal/asset"
	"github.com/dev-tams/assetsweep/internal/classify"
)

type KeepStrategy string

const (
	KeepHighestQuality KeepStrategy = "highest_quality"
	KeepMostRecent     KeepStrategy = "most_recent"
	KeepSmallestSize   KeepStrategy = "smallest_size"
	KeepFirst          KeepStrategy = "first"
)

// ParseKeepStrategy never fails: unknown values select KeepFirst.
func ParseKeepStrategy(s string) KeepStrategy {
	switch KeepStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case KeepHighestQuality:
		return KeepHighestQuality
	case KeepMostRecent:
		return KeepMostRecent
	case KeepSmallestSize:
		return KeepSmallestSize
	default:
		return KeepFirst
	}
}

// Member is one asset in a group together with the store key it lives under.
type Member struct {
	Key   string
	Asset *asset.Asset
}

type Group struct {
	Signature string
	Members   []Member
}

// Groups accumulates members by signature, preserving first-seen order of
// both groups and members. The zero value is not usable; call NewGroups.
type Groups struct {
	index  map[string]int
	groups []*Group
}

func NewGroups() *Groups {
	return &Groups{index: make(map[string]int)}
}

// Add appends m to the group for its signature and returns that signature.
func (g *Groups) Add(m Member) string {
	sig := classify.Signature(m.Asset)
	if i, ok := g.index[sig]; ok {
		g.groups[i].Members = append(g.groups[i].Members, m)
		return sig
	}
	g.index[sig] = len(g.groups)
	g.groups = append(g.groups, &Group{Signature: sig, Members: []Member{m}})
	return sig
}

// Duplicates returns groups with two or more members in first-seen order.
func (g *Groups) Duplicates() []*Group {
	out := make([]*Group, 0)
	for _, grp := range g.groups {
		if len(grp.Members) >= 2 {
			out = append(out, grp)
		}
	}
	return out
}

// Len is the number of distinct signatures seen.
func (g *Groups) Len() int { return len(g.groups) }

// SelectKeeper returns the index of the member to keep. Ties keep the
// earliest member. An empty slice returns -1.
func SelectKeeper(members []Member, strategy KeepStrategy) int {
	if len(members) == 0 {
		return -1
	}

	best := 0
	switch strategy {
	case KeepHighestQuality:
		bestScore := classify.Score(srcOf(members[0].Asset))
		for i := 1; i < len(members); i++ {
			if s := classify.Score(srcOf(members[i].Asset)); s > bestScore {
				best, bestScore = i, s
			}
		}
	case KeepMostRecent:
		bestTime := members[0].Asset.Recency()
		for i := 1; i < len(members); i++ {
			if ts := members[i].Asset.Recency(); ts > bestTime {
				best, bestTime = i, ts
			}
		}
	case KeepSmallestSize:
		bestSize := classify.EstimateSize(members[0].Asset)
		for i := 1; i < len(members); i++ {
			if sz := classify.EstimateSize(members[i].Asset); sz < bestSize {
				best, bestSize = i, sz
			}
		}
	}
	return best
}

func srcOf(a *asset.Asset) string {
	if a == nil {
		return ""
	}
	return a.Src
}
