package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/assetsweep/internal/asset"
)

func int64p(v int64) *int64 { return &v }

func TestScoreTable(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"missing", "", 0},
		{"whitespace", "   ", 0},
		{"dish cdn with webp", "https://dish.scene7.com/is/image/dishenterprise/hero.jpg?format=webp", 115},
		{"dish cdn transparent png", "https://dish.scene7.com/is/image/dishenterprise/logo?$transparent-png$", 125},
		{"generic scene7", "https://other.scene7.com/is/image/x/y.jpg", 85},
		{"cloudfront medium", "https://d1.cloudfront.net/a.jpg?qlt=medium", 80},
		{"external http", "https://images.acme.io/a.jpg", 40},
		{"relative path", "/assets/img/a.png", 10},
		{"placeholder on example domain", "https://example.com/placeholder.jpg", 0},
		{"penalty on strong tier", "https://dish.scene7.com/is/image/dishenterprise/dummy.jpg", 50},
		{"case insensitive", "HTTPS://DISH.SCENE7.COM/is/image/DishEnterprise/A.JPG", 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tc.src))
		})
	}
}

func TestScoreNeverNegative(t *testing.T) {
	for _, src := range []string{"placeholder", "x/dummy/test-image", "http://example.com"} {
		assert.GreaterOrEqual(t, Score(src), 0, src)
	}
}

func TestPenaltyExceedsEveryBonus(t *testing.T) {
	for _, b := range FormatBonuses {
		assert.Greater(t, fakeLocatorPenalty, b.Value, b.Pattern)
	}
}

func TestGradeOf(t *testing.T) {
	assert.Equal(t, GradeExcellent, GradeOf(80))
	assert.Equal(t, GradeGood, GradeOf(79))
	assert.Equal(t, GradeGood, GradeOf(60))
	assert.Equal(t, GradeFair, GradeOf(40))
	assert.Equal(t, GradePoor, GradeOf(39))
	assert.Equal(t, "Poor", GradeOf(0).Label())

	score, label := Assess("https://dish.scene7.com/is/image/dishenterprise/hero.jpg")
	assert.Equal(t, 100, score)
	assert.Equal(t, "Excellent", label)
}

func TestIsJunkWhenRequiredFieldsMissing(t *testing.T) {
	cases := []*asset.Asset{
		nil,
		{ID: "1"},
		{ID: "2", DisplayName: "Hero"},
		{ID: "3", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg"},
	}
	for _, a := range cases {
		assert.True(t, IsJunk(a), "%+v", a)
	}

	assert.Equal(t, ReasonMissingSource, JunkReason(&asset.Asset{ID: "1"}))
	assert.Equal(t, ReasonMissingSource, JunkReason(&asset.Asset{ID: "1", DisplayName: "x"}))
	assert.Equal(t, ReasonMissingName, JunkReason(&asset.Asset{ID: "1", Src: "https://cdn/x.jpg"}))
}

func TestJunkScenarioPlaceholderOnExampleDomain(t *testing.T) {
	a := &asset.Asset{ID: "1", Src: "https://example.com/placeholder.jpg", DisplayName: "placeholder"}

	assert.True(t, IsJunk(a))
	assert.Equal(t, "Placeholder image", JunkReason(a))
	assert.Equal(t, 0, Score(a.Src))
}

func TestJunkMatchesNameCaseInsensitively(t *testing.T) {
	a := &asset.Asset{ID: "1", Src: "https://dish.scene7.com/is/image/dishenterprise/a.jpg", DisplayName: "Lorem Ipsum Banner"}
	assert.True(t, IsJunk(a))
	assert.Equal(t, "Lorem ipsum content", JunkReason(a))
}

func TestCleanAssetIsNotJunk(t *testing.T) {
	a := &asset.Asset{ID: "1", Src: "https://dish.scene7.com/is/image/dishenterprise/hero.jpg", DisplayName: "Hero banner"}
	assert.False(t, IsJunk(a))
	assert.Equal(t, ReasonLowQuality, JunkReason(a))
}

func TestJunkIndicatorsAreLowercase(t *testing.T) {
	for _, ind := range JunkIndicators {
		require.Equal(t, strings.ToLower(ind.Pattern), ind.Pattern)
		require.NotEmpty(t, ind.Label)
	}
}

func TestSignature(t *testing.T) {
	a := &asset.Asset{DisplayName: "Hero Banner!", Src: "https://CDN.example/Hero_1.jpg"}
	assert.Equal(t, "herobanner-httpscdnexamplehero1jpg", Signature(a))
	assert.Equal(t, Signature(a), Signature(a))

	assert.Equal(t, "-", Signature(&asset.Asset{}))
	assert.Equal(t, "-", Signature(nil))
}

func TestSignatureTruncatesSoLongLocatorsCollide(t *testing.T) {
	base := "https://dish.scene7.com/is/image/dishenterprise/hero.jpg"
	a := &asset.Asset{DisplayName: "Hero", Src: base + "?v=1"}
	b := &asset.Asset{DisplayName: "Hero", Src: base + "?v=2"}

	sa := Signature(a)
	assert.Len(t, sa, SignatureLength)
	assert.Equal(t, sa, Signature(b))
}

func TestEstimateSize(t *testing.T) {
	assert.EqualValues(t, 4096, EstimateSize(&asset.Asset{FileSize: int64p(4096)}))
	assert.EqualValues(t, 150, EstimateSize(&asset.Asset{Dimensions: &asset.Dimensions{Width: 10, Height: 10}}))
	assert.EqualValues(t, 7, EstimateSize(&asset.Asset{Dimensions: &asset.Dimensions{Width: 1, Height: 5}}))
	assert.EqualValues(t, DefaultAssetSize, EstimateSize(&asset.Asset{}))
	assert.EqualValues(t, DefaultAssetSize, EstimateSize(&asset.Asset{FileSize: int64p(0)}))
	assert.EqualValues(t, DefaultAssetSize, EstimateSize(nil))
}

func TestMissingSourceScoresZeroAndUsesDefaultSize(t *testing.T) {
	a := &asset.Asset{ID: "x", DisplayName: "Hero"}
	assert.Equal(t, 0, Score(a.Src))
	assert.EqualValues(t, DefaultAssetSize, EstimateSize(a))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "10 MiB", FormatBytes(10*1024*1024))
}
