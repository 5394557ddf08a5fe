package classify

import (
	"github.com/dustin/go-humanize"

	"github.com/dev-tams/assetsweep/internal/asset"
)

// DefaultAssetSize is the estimate used when neither size nor dimensions are known.
const DefaultAssetSize int64 = 25_000

// EstimateSize returns the declared file size, else a 4:2:0 raster estimate
// from the pixel dimensions, else DefaultAssetSize.
func EstimateSize(a *asset.Asset) int64 {
	if size, ok := a.DeclaredSize(); ok {
		return size
	}
	if area, ok := a.PixelArea(); ok {
		return area * 3 / 2
	}
	return DefaultAssetSize
}

// FormatBytes renders a byte count in binary units, e.g. "1.5 MiB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}
