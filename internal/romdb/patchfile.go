package romdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/romdb/romdb/internal/manifest"
)

// CreatePatchFile generates patch.txt from a manifest tree without
// touching any database: files are grouped to media exactly as import
// would group them, and every group with more than one file becomes a
// record whose first line is the parent. With a systems.txt in
// importPath, one patch.txt is written per system under outPath; the
// output path is otherwise the patch.txt file itself.
func CreatePatchFile(importPath, outPath, configName string) error {
	if info, err := os.Stat(importPath); err != nil || !info.IsDir() {
		return fmt.Errorf("import path %s is not a directory", importPath)
	}

	systemsFile := manifest.FilePath(importPath, "systems", configName)
	if info, err := os.Stat(systemsFile); err == nil && !info.IsDir() {
		text, err := os.ReadFile(systemsFile)
		if err != nil {
			return fmt.Errorf("reading systems manifest: %w", err)
		}
		written := 0
		for _, line := range manifest.SplitLines(string(text)) {
			if line == "" {
				continue
			}
			systemPath := filepath.Join(importPath, line)
			if info, err := os.Stat(systemPath); err != nil || !info.IsDir() {
				continue
			}
			systemOut := filepath.Join(outPath, line)
			if err := os.MkdirAll(systemOut, 0755); err != nil {
				return err
			}
			if err := createSystemPatchFile(systemPath, filepath.Join(systemOut, "patch.txt"), configName); err != nil {
				return err
			}
			written++
		}
		if written == 0 {
			return fmt.Errorf("no system found under %s", importPath)
		}
		return nil
	}

	return createSystemPatchFile(importPath, outPath, configName)
}

func createSystemPatchFile(importPath, outPath, configName string) error {
	mediaLines, err := manifest.ReadLines(importPath, "media", configName)
	if err != nil {
		return err
	}
	fileLines, err := manifest.ReadLines(importPath, "file", configName)
	if err != nil {
		return err
	}

	var files []string
	for _, line := range fileLines {
		if line != "" {
			files = append(files, line)
		}
	}

	groups := make([]mediaGroup, 0, len(mediaLines))
	for _, media := range mediaLines {
		if media == "" {
			continue
		}
		groups = append(groups, mediaGroup{Media: media})
	}

	var text strings.Builder
	for _, group := range groupFiles(groups, files) {
		if len(group.Files) <= 1 {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte('\n')
		}
		for _, file := range group.Files {
			text.WriteString(file)
			text.WriteByte('\n')
		}
	}
	return os.WriteFile(outPath, []byte(text.String()), 0644)
}
