package classify

import (
	"strings"

	"github.com/dev-tams/assetsweep/internal/asset"
)

// SignatureLength bounds the duplicate key.
const SignatureLength = 50

// Signature is the approximate-duplicate key "{name}-{src}", each part
// lowercased and stripped to [a-z0-9], truncated to SignatureLength.
func Signature(a *asset.Asset) string {
	var name, src string
	if a != nil {
		name = a.DisplayName
		src = a.Src
	}

	sig := normalize(name) + "-" + normalize(src)
	if len(sig) > SignatureLength {
		sig = sig[:SignatureLength]
	}
	return sig
}

func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
