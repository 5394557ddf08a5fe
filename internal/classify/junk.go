package classify

import (
	"strings"

	"github.com/dev-tams/assetsweep/internal/asset"
)

// Indicator is a lexical junk marker and the reason reported when it matches.
type Indicator struct {
	Pattern string
	Label   string
}

const (
	ReasonMissingSource = "Missing source URL"
	ReasonMissingName   = "Missing display name"
	ReasonLowQuality    = "Low quality asset"
)

// JunkIndicators is evaluated in order; the first indicator found in the
// locator or the display name decides the reported reason.
var JunkIndicators = []Indicator{
	{Pattern: "placeholder", Label: "Placeholder image"},
	{Pattern: "example.com", Label: "Example domain"},
	{Pattern: "test-image", Label: "Test image"},
	{Pattern: "sample", Label: "Sample content"},
	{Pattern: "dummy", Label: "Dummy content"},
	{Pattern: "fake", Label: "Fake content"},
	{Pattern: "lorem", Label: "Lorem ipsum content"},
	{Pattern: "internal image", Label: "Internal image reference"},
	{Pattern: "broken", Label: "Broken image"},
	{Pattern: "missing", Label: "Missing image"},
	{Pattern: "temp", Label: "Temporary file"},
	{Pattern: "tmp", Label: "Temporary file"},
	{Pattern: "default", Label: "Default image"},
	{Pattern: "no-image", Label: "No-image placeholder"},
	{Pattern: "blank", Label: "Blank image"},
	{Pattern: "null", Label: "Null reference"},
	{Pattern: "undefined", Label: "Undefined reference"},
	{Pattern: "error", Label: "Error image"},
	{Pattern: "404", Label: "404 image"},
	{Pattern: "not-found", Label: "Not-found image"},
}

// IsJunk reports whether an asset is definitively junk.
func IsJunk(a *asset.Asset) bool {
	_, junk := classifyJunk(a)
	return junk
}

// JunkReason explains why an asset is junk. Assets that match no rule get
// the generic low-quality reason.
func JunkReason(a *asset.Asset) string {
	reason, _ := classifyJunk(a)
	return reason
}

func classifyJunk(a *asset.Asset) (string, bool) {
	src, ok := a.Source()
	if !ok {
		return ReasonMissingSource, true
	}
	name, ok := a.Name()
	if !ok {
		return ReasonMissingName, true
	}

	lowerSrc := strings.ToLower(src)
	lowerName := strings.ToLower(name)
	for _, ind := range JunkIndicators {
		if strings.Contains(lowerSrc, ind.Pattern) || strings.Contains(lowerName, ind.Pattern) {
			return ind.Label, true
		}
	}
	return ReasonLowQuality, false
}
