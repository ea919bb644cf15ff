package romdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/romdb/romdb/internal/codec"
	"github.com/romdb/romdb/internal/hash"
	"github.com/romdb/romdb/internal/manifest"
	"github.com/romdb/romdb/internal/natsort"
	"github.com/romdb/romdb/internal/sevenzip"
)

// Import runs the one-path form: the file pool defaults to
// importPath/files.
func (s *Service) Import(importPath, configName string) error {
	return s.ImportFrom(filepath.Join(importPath, "files"), importPath, configName)
}

// ImportFrom imports the manifest tree at importPath, reading file
// bytes from the pool at romsPath. When romsPath names a .7z archive
// it is extracted to a temporary directory first. A systems.txt in
// importPath makes the import recurse into each listed sub-directory;
// a failed system aborts only itself.
func (s *Service) ImportFrom(romsPath, importPath, configName string) error {
	pool, cleanup, err := s.resolvePool(romsPath)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if info, err := os.Stat(importPath); err != nil || !info.IsDir() {
		return fmt.Errorf("import path %s is not a directory", importPath)
	}

	systemsFile := manifest.FilePath(importPath, "systems", configName)
	if info, err := os.Stat(systemsFile); err == nil && !info.IsDir() {
		text, err := os.ReadFile(systemsFile)
		if err != nil {
			return fmt.Errorf("reading systems manifest: %w", err)
		}
		imported := 0
		for _, line := range manifest.SplitLines(string(text)) {
			if line == "" {
				continue
			}
			systemPath := filepath.Join(importPath, line)
			if info, err := os.Stat(systemPath); err != nil || !info.IsDir() {
				continue
			}
			if err := s.importSystem(pool, systemPath, configName); err != nil {
				s.log.Warn("system import failed", "system", line, "error", err)
				continue
			}
			imported++
		}
		if imported == 0 {
			return fmt.Errorf("no system imported from %s", importPath)
		}
		return nil
	}

	return s.importSystem(pool, importPath, configName)
}

// resolvePool validates the file pool path, extracting a 7-Zip archive
// into a temporary directory when romsPath names one.
func (s *Service) resolvePool(romsPath string) (string, func(), error) {
	info, err := os.Stat(romsPath)
	if err != nil {
		return "", nil, fmt.Errorf("roms path %s: %w", romsPath, err)
	}
	if info.IsDir() {
		return romsPath, nil, nil
	}
	if !strings.EqualFold(filepath.Ext(romsPath), ".7z") {
		return "", nil, fmt.Errorf("roms path %s is not a directory", romsPath)
	}

	dir, err := os.MkdirTemp("", "romdb-pool-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating pool directory: %w", err)
	}
	if err := sevenzip.Extract(romsPath, dir); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("extracting %s: %w", romsPath, err)
	}
	s.log.Info("extracted archive into pool", "archive", romsPath)
	return dir, func() { os.RemoveAll(dir) }, nil
}

func (s *Service) importSystem(romsPath, importPath, configName string) error {
	// System pass.
	sys, err := manifest.ReadSystem(importPath, configName)
	if err != nil {
		return err
	}
	system, err := s.store.UpsertSystem(sys.Name, sys.Code)
	if err != nil {
		return err
	}
	s.log.Info("importing system", "code", system.Code, "name", system.Name)

	// Media pass.
	mediaLines, err := manifest.ReadLines(importPath, "media", configName)
	if err != nil {
		return err
	}
	if len(mediaLines) == 0 {
		return fmt.Errorf("media manifest in %s is empty", importPath)
	}

	mediaTags, err := manifest.ReadTags(filepath.Join(importPath, "mediatag"))
	if err != nil {
		return err
	}
	for _, media := range mediaLines {
		if media == "" {
			continue
		}
		mediaID, err := s.store.UpsertMedia(media, system.ID)
		if err != nil {
			return err
		}
		if err := s.applyTags(mediaTags, media, mediaID, s.store.LinkMediaTag); err != nil {
			return err
		}
	}

	// Patch pre-read: children defer their payload to the patch pass.
	patches, err := manifest.ReadPatches(importPath, configName)
	if err != nil {
		return err
	}
	// All maps are keyed by lowercased name. parentIDs marks the names
	// declared as patch parents; parentRows receives their row ids as
	// the file pass inserts them.
	parentIDs := make(map[string]string)
	for _, record := range patches {
		parentIDs[strings.ToLower(record.Parent)] = record.Parent
	}
	childIDs := make(map[string]int64)
	parentRows := make(map[string]int64)

	// File pass.
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
	if len(files) == 0 {
		return fmt.Errorf("file manifest in %s is empty", importPath)
	}

	media, err := s.store.MediaBySystem(system.ID)
	if err != nil {
		return err
	}
	groups := make([]mediaGroup, len(media))
	for i, m := range media {
		groups[i] = mediaGroup{MediaID: m.ID, Media: m.Name}
	}

	fileTags, err := manifest.ReadTags(filepath.Join(importPath, "filetag"))
	if err != nil {
		return err
	}

	for _, group := range groupFiles(groups, files) {
		for _, file := range group.Files {
			if err := s.importFile(romsPath, file, group.MediaID, sys, patches, childIDs, parentRows, parentIDs, fileTags); err != nil {
				s.log.Warn("file import failed", "file", file, "error", err)
			}
		}
	}

	// Patch pass.
	return s.importPatches(romsPath, system.ID, sys, patches, childIDs, parentRows)
}

// importFile ingests one file of the file pass. Patch children are
// inserted with a NULL payload; their bytes arrive in the patch pass.
func (s *Service) importFile(
	romsPath, file string,
	mediaID int64,
	sys *manifest.System,
	patches map[string]manifest.PatchRecord,
	childIDs, parentRows map[string]int64,
	parentIDs map[string]string,
	fileTags map[string][]manifest.Tag,
) error {
	lower := strings.ToLower(file)

	filePath := filepath.Join(romsPath, file)
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		// Listed but absent from the pool: skip and continue.
		s.log.Debug("file not in pool", "file", file)
		return nil
	}

	_, isChild := patches[lower]

	var data []byte
	var size int64
	compression := ""
	if isChild {
		size = info.Size()
	} else {
		bytes, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filePath, err)
		}
		size = int64(len(bytes))
		var compressed bool
		data, compressed = codec.Compress(bytes, sys.Compression)
		if compressed {
			compression = sys.Compression
		}
	}

	if err := s.store.InsertFile(file, data, size, compression, mediaID); err != nil {
		return err
	}
	fileID, err := s.store.FileID(file, mediaID)
	if err != nil {
		return err
	}
	if fileID == 0 {
		return fmt.Errorf("file %s not present after insert", file)
	}

	if isChild {
		childIDs[lower] = fileID
	}
	if _, ok := parentIDs[lower]; ok {
		parentRows[lower] = fileID
	}

	if sys.Hash != "" {
		if digest := hash.Compute(data, sys.Hash); digest != "" {
			if err := s.store.UpsertChecksum(fileID, sys.Hash, digest); err != nil {
				return err
			}
		}
	}

	return s.applyTags(fileTags, file, fileID, s.store.LinkFileTag)
}

// importPatches runs the patch pass: resolve each child's parent
// (same system first, any other system as fallback), produce the
// delta, compress it, rewrite the child row and its checksum.
func (s *Service) importPatches(
	romsPath string,
	systemID int64,
	sys *manifest.System,
	patches map[string]manifest.PatchRecord,
	childIDs, parentRows map[string]int64,
) error {
	if len(patches) == 0 {
		return nil
	}

	children := make([]string, 0, len(patches))
	for child := range patches {
		children = append(children, child)
	}
	natsort.Sort(children)

	for _, child := range children {
		record := patches[child]
		fileID := childIDs[child]
		if fileID == 0 {
			// Child not in file.txt or not in the pool.
			continue
		}

		parentID, err := s.resolveParent(record.Parent, fileID, systemID, parentRows)
		if err != nil {
			return err
		}
		if err := s.importPatch(romsPath, record, fileID, parentID, sys); err != nil {
			s.log.Warn("patch import failed", "child", record.Child, "error", err)
		}
	}
	return nil
}

// resolveParent finds the patch parent row: same system first, any
// other system as fallback. The child's own row never serves as its
// parent — a record declaring a file as child of its own name reaches
// across systems instead.
func (s *Service) resolveParent(parent string, childID, systemID int64, parentRows map[string]int64) (int64, error) {
	parentID := parentRows[strings.ToLower(parent)]
	if parentID != 0 && parentID != childID {
		return parentID, nil
	}
	crossID, err := s.store.FileIDOutsideSystem(parent, systemID)
	if err != nil {
		return 0, err
	}
	if crossID != 0 {
		return crossID, nil
	}
	return 0, nil
}

func (s *Service) importPatch(
	romsPath string,
	record manifest.PatchRecord,
	fileID, parentID int64,
	sys *manifest.System,
) error {
	parentBytes, err := os.ReadFile(filepath.Join(romsPath, record.Parent))
	if err != nil {
		return fmt.Errorf("reading parent %s: %w", record.Parent, err)
	}
	childBytes, err := os.ReadFile(filepath.Join(romsPath, record.Child))
	if err != nil {
		return fmt.Errorf("reading child %s: %w", record.Child, err)
	}

	var payload []byte
	isPatch := false
	if parentID != 0 {
		payload, isPatch = codec.MakePatch(parentBytes, childBytes)
		if !isPatch {
			// No delta: store the child whole, not the returned source.
			payload = childBytes
		}
	} else {
		// Parent resolved nowhere: store the child whole rather than a
		// delta against a row that does not exist.
		s.log.Warn("patch parent not found", "parent", record.Parent, "child", record.Child)
		payload = childBytes
	}

	data, compressed := codec.Compress(payload, sys.Compression)
	compression := ""
	if compressed {
		compression = sys.Compression
	}

	linkParent := int64(0)
	if isPatch {
		linkParent = parentID
	}
	if err := s.store.SetFilePayload(fileID, data, compression, linkParent); err != nil {
		return err
	}

	if sys.Hash != "" {
		if digest := hash.Compute(data, sys.Hash); digest != "" {
			if err := s.store.UpsertChecksum(fileID, sys.Hash, digest); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyTags upserts each tag of the named member and links it through
// the given bridge. The tag map is keyed by lowercased member name.
func (s *Service) applyTags(
	tags map[string][]manifest.Tag,
	member string,
	memberID int64,
	link func(tagID, memberID int64) error,
) error {
	for _, tag := range tags[strings.ToLower(member)] {
		tagID, err := s.store.UpsertTag(tag.Name, tag.Value)
		if err != nil {
			return err
		}
		if err := link(tagID, memberID); err != nil {
			return err
		}
	}
	return nil
}
