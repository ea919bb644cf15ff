package codec

import (
	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
)

// MakePatch produces a binary delta that reconstructs target from
// source. On failure the source bytes are returned unchanged with a
// false flag, and the caller stores the file non-delta.
func MakePatch(source, target []byte) ([]byte, bool) {
	patch, err := bsdiff.Bytes(source, target)
	if err != nil {
		return source, false
	}
	return patch, true
}

// ApplyPatch applies a delta produced by MakePatch against source.
// expectedSize is the reconstructed length recorded at import; a
// mismatch means the stored rows are corrupt. Returns nil on failure.
func ApplyPatch(source, patch []byte, expectedSize int64) []byte {
	out, err := bspatch.Bytes(source, patch)
	if err != nil {
		return nil
	}
	if expectedSize > 0 && int64(len(out)) != expectedSize {
		return nil
	}
	return out
}
