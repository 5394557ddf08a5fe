package classify

import "strings"

// Rule is one row of an ordered first-match-wins lookup table.
type Rule struct {
	Pattern string
	Value   int
}

const (
	externalHTTPScore  = 40
	relativeScore      = 10
	fakeLocatorPenalty = 50
)

// SourceTiers rank where an asset is served from. Order matters: the first
// pattern contained in the locator wins.
var SourceTiers = []Rule{
	{Pattern: "dish.scene7.com/is/image/dishenterprise", Value: 100},
	{Pattern: "scene7.com", Value: 85},
	{Pattern: "cloudfront.net", Value: 70},
	{Pattern: "amazonaws.com", Value: 65},
	{Pattern: "cloudinary.com", Value: 60},
}

// FormatBonuses reward known high-value transformation presets; at most one applies.
var FormatBonuses = []Rule{
	{Pattern: "$transparent-png$", Value: 25},
	{Pattern: "format=webp", Value: 15},
	{Pattern: "fmt=webp", Value: 15},
	{Pattern: "qlt=medium", Value: 10},
	{Pattern: "$medium$", Value: 10},
}

// FakeLocatorMarkers flag locators that are well formed but obviously not real content.
var FakeLocatorMarkers = []string{
	"placeholder",
	"example.com",
	"test-image",
	"dummy",
}

// Score rates an asset by its source locator alone. A missing locator scores 0.
func Score(src string) int {
	src = strings.TrimSpace(src)
	if src == "" {
		return 0
	}
	lower := strings.ToLower(src)

	score, ok := firstMatch(SourceTiers, lower)
	if !ok {
		if strings.HasPrefix(lower, "http") {
			score = externalHTTPScore
		} else {
			score = relativeScore
		}
	}

	if bonus, ok := firstMatch(FormatBonuses, lower); ok {
		score += bonus
	}

	for _, marker := range FakeLocatorMarkers {
		if strings.Contains(lower, marker) {
			score -= fakeLocatorPenalty
			break
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

func firstMatch(rules []Rule, s string) (int, bool) {
	for _, r := range rules {
		if strings.Contains(s, strings.ToLower(r.Pattern)) {
			return r.Value, true
		}
	}
	return 0, false
}

// Grade is the quality bucket a score falls into.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

func GradeOf(score int) Grade {
	switch {
	case score >= 80:
		return GradeExcellent
	case score >= 60:
		return GradeGood
	case score >= 40:
		return GradeFair
	default:
		return GradePoor
	}
}

// Label is the human-readable classification of a grade.
func (g Grade) Label() string {
	switch g {
	case GradeExcellent:
		return "Excellent"
	case GradeGood:
		return "Good"
	case GradeFair:
		return "Fair"
	default:
		return "Poor"
	}
}

// Assess returns the score and its classification label for a locator.
func Assess(src string) (int, string) {
	s := Score(src)
	return s, GradeOf(s).Label()
}
