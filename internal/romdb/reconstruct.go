package romdb

import (
	"fmt"

	"github.com/romdb/romdb/internal/codec"
	"github.com/romdb/romdb/internal/database"
)

// GetFile reconstructs a file's original bytes: decompress the stored
// payload, then apply the delta chain from the root parent down. The
// parent walk is iterative; the import topology guarantees the chain
// is acyclic, but a corrupted database must not hang us.
func (s *Service) GetFile(fileID int64) ([]byte, error) {
	type link struct {
		id  int64
		row database.FileData
	}

	var chain []link
	seen := make(map[int64]bool)
	for id := fileID; ; {
		if seen[id] {
			return nil, fmt.Errorf("file %d: parent chain contains a cycle", fileID)
		}
		seen[id] = true

		row, err := s.store.FileData(id)
		if err != nil {
			return nil, err
		}
		chain = append(chain, link{id: id, row: row})
		if !row.HasParent {
			break
		}
		id = row.ParentID
	}

	// chain runs child-first; walk it backwards from the root.
	root := chain[len(chain)-1]
	result, ok := payloadBytes(root.row)
	if !ok {
		return nil, fmt.Errorf("file %d: cannot decode payload", root.id)
	}

	for i := len(chain) - 2; i >= 0; i-- {
		patch, ok := payloadBytes(chain[i].row)
		if !ok {
			return nil, fmt.Errorf("file %d: cannot decode patch payload", chain[i].id)
		}
		result = codec.ApplyPatch(result, patch, chain[i].row.Size)
		if result == nil {
			return nil, fmt.Errorf("file %d: cannot apply patch", chain[i].id)
		}
	}
	return result, nil
}

// payloadBytes decodes a row's stored payload: the data column as-is
// when no compression is recorded, the decompressed stream otherwise.
// For non-patched rows the output is the original bytes; for patched
// rows it is the delta to apply against the parent.
func payloadBytes(row database.FileData) ([]byte, bool) {
	if row.Compression == "" {
		return row.Data, true
	}
	out := codec.Decompress(row.Data, row.Size, row.Compression)
	return out, out != nil
}
