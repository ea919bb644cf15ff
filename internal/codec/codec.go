// Package codec handles the per-file stream compression applied to
// stored payloads, and the binary delta encoding between related files.
package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"
)

// Supported compression algorithm names, as they appear in system.txt
// and in the file.compression column.
const (
	Deflate = "deflate"
	XZ      = "xz"
)

// maxInitialBuffer caps the decompression buffer hint at 1 GiB. A
// corrupt size column must not drive the allocation.
const maxInitialBuffer = 1 << 30

// Known reports whether name is a supported compression algorithm.
func Known(name string) bool {
	return name == Deflate || name == XZ
}

// Compress compresses data with the named algorithm at the highest
// compression level. The second return value reports success; on
// failure — unknown algorithm, empty input, or output not smaller than
// the input — the original data is returned and the caller stores it
// uncompressed.
func Compress(data []byte, algorithm string) ([]byte, bool) {
	if len(data) == 0 {
		return data, false
	}

	var out []byte
	var err error
	switch algorithm {
	case Deflate:
		out, err = compressDeflate(data)
	case XZ:
		out, err = compressXZ(data)
	default:
		return data, false
	}
	if err != nil || len(out) >= len(data) {
		return data, false
	}
	return out, true
}

// Decompress decompresses data with the named algorithm. expectedSize
// hints the output buffer; it is clamped to [1, 1 GiB] and the stream
// is allowed to exceed it (a patch payload decompresses to the patch
// length, not the file's reconstructed size). Returns nil on failure.
func Decompress(data []byte, expectedSize int64, algorithm string) []byte {
	if len(data) == 0 {
		return nil
	}

	var r io.Reader
	switch algorithm {
	case Deflate:
		r = flate.NewReader(bytes.NewReader(data))
	case XZ:
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil
		}
		r = xr
	default:
		return nil
	}

	hint := expectedSize
	if hint < 1 {
		hint = 1
	}
	if hint > maxInitialBuffer {
		hint = maxInitialBuffer
	}

	buf := bytes.NewBuffer(make([]byte, 0, hint))
	if _, err := io.Copy(buf, r); err != nil {
		return nil
	}
	return buf.Bytes()
}

func compressDeflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressXZ(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
