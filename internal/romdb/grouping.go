package romdb

import (
	"sort"
	"strings"

	"github.com/romdb/romdb/internal/natsort"
)

// mediaGroup is one media's claim on the file working set.
type mediaGroup struct {
	MediaID int64
	Media   string
	Files   []string
}

// groupFiles assigns file names to media by longest-matching-prefix.
// Media are visited in descending natural order so that a media named
// "Game X Extras" claims its files before "Game X" is considered;
// claimed files are removed from the working set. Files left unclaimed
// belong to no media and are dropped.
func groupFiles(media []mediaGroup, files []string) []mediaGroup {
	ordered := make([]mediaGroup, len(media))
	copy(ordered, media)
	for i := range ordered {
		ordered[i].Files = nil
	}
	// Descending natural order of media names.
	sort.SliceStable(ordered, func(i, j int) bool {
		return natsort.Less(ordered[j].Media, ordered[i].Media)
	})

	remaining := make([]string, len(files))
	copy(remaining, files)

	for i := range ordered {
		prefix := strings.ToLower(ordered[i].Media)
		var claimed, rest []string
		for _, file := range remaining {
			if strings.HasPrefix(strings.ToLower(file), prefix) {
				claimed = append(claimed, file)
			} else {
				rest = append(rest, file)
			}
		}
		natsort.Sort(claimed)
		ordered[i].Files = claimed
		remaining = rest
	}
	return ordered
}
