package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/romdb/romdb/internal/natsort"
)

// SortFile rewrites the text file at path with its non-blank lines in
// natural order. Blank lines are collapsed: for N blanks in the input,
// N−1 trailing blank lines are re-emitted.
func SortFile(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	lines := SplitLines(string(text))
	if len(lines) == 0 {
		return nil
	}
	natsort.Sort(lines)

	var out strings.Builder
	blanks := 0
	for _, line := range lines {
		if line == "" {
			blanks++
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	for i := 1; i < blanks; i++ {
		out.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(out.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
