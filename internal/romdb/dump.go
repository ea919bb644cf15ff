package romdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/romdb/romdb/internal/database"
	"github.com/romdb/romdb/internal/natsort"
)

// Dump writes every system's files under dumpPath/<code>/. A system
// whose directory already has content is skipped. The short dump
// writes the files only; the full dump nests them under files/ and
// regenerates the manifest tree (system.txt, media.txt, file.txt,
// patch.txt, mediatag/, filetag/) so that the output can be imported
// again.
func (s *Service) Dump(dumpPath string, full bool) error {
	if info, err := os.Stat(dumpPath); err != nil || !info.IsDir() {
		return fmt.Errorf("dump path %s is not a directory", dumpPath)
	}

	systems, err := s.store.Systems()
	if err != nil {
		return err
	}
	for _, system := range systems {
		if err := s.dumpSystem(dumpPath, system, full); err != nil {
			return fmt.Errorf("dumping system %s: %w", system.Code, err)
		}
	}
	return nil
}

func (s *Service) dumpSystem(dumpPath string, system database.System, full bool) error {
	systemPath := filepath.Join(dumpPath, system.Code)
	if err := os.MkdirAll(systemPath, 0755); err != nil {
		return err
	}
	if entries, err := os.ReadDir(systemPath); err != nil {
		return err
	} else if len(entries) > 0 {
		s.log.Info("skipping non-empty dump directory", "system", system.Code)
		return nil
	}

	if full {
		if err := s.writeSystemManifest(systemPath, system); err != nil {
			return err
		}
	}

	filesPath := systemPath
	if full {
		filesPath = filepath.Join(systemPath, "files")
		if err := os.MkdirAll(filesPath, 0755); err != nil {
			return err
		}
	}

	files, err := s.store.FilesBySystem(system.ID)
	if err != nil {
		return err
	}
	var fileList strings.Builder
	for _, file := range files {
		data, err := s.GetFile(file.ID)
		if err != nil {
			s.log.Error("reconstruction failed", "file", file.Name, "error", err)
			continue
		}
		if err := os.WriteFile(filepath.Join(filesPath, file.Name), data, 0644); err != nil {
			return err
		}
		fileList.WriteString(file.Name)
		fileList.WriteByte('\n')
	}

	if !full {
		return nil
	}

	if err := os.WriteFile(filepath.Join(systemPath, "file.txt"), []byte(fileList.String()), 0644); err != nil {
		return err
	}
	if err := s.writePatchManifest(systemPath, system.ID); err != nil {
		return err
	}
	if err := s.writeMediaManifest(systemPath, system.ID); err != nil {
		return err
	}
	members, err := s.store.FileTagMembers(system.ID)
	if err != nil {
		return err
	}
	if err := writeTagTree(filepath.Join(systemPath, "filetag"), members); err != nil {
		return err
	}
	members, err = s.store.MediaTagMembers(system.ID)
	if err != nil {
		return err
	}
	return writeTagTree(filepath.Join(systemPath, "mediatag"), members)
}

// writeSystemManifest regenerates system.txt. The compression and hash
// lines read "none" when no file of the system carries that attribute.
func (s *Service) writeSystemManifest(systemPath string, system database.System) error {
	compression, err := s.store.SystemCompression(system.ID)
	if err != nil {
		return err
	}
	if compression == "" {
		compression = "none"
	}
	checksum, err := s.store.SystemChecksumName(system.ID)
	if err != nil {
		return err
	}
	if checksum == "" {
		checksum = "none"
	}

	text := system.Code + "\n" + system.Name + "\n" + compression + "\n" + checksum + "\n"
	return os.WriteFile(filepath.Join(systemPath, "system.txt"), []byte(text), 0644)
}

// writePatchManifest regenerates patch.txt: records grouped by parent,
// the parent listed once, children in natural order, records separated
// by a blank line.
func (s *Service) writePatchManifest(systemPath string, systemID int64) error {
	pairs, err := s.store.PatchPairs(systemID)
	if err != nil {
		return err
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if c := natsort.Compare(pairs[i].Parent, pairs[j].Parent); c != 0 {
			return c < 0
		}
		return natsort.Less(pairs[i].Child, pairs[j].Child)
	})

	var text strings.Builder
	current := ""
	for _, pair := range pairs {
		if current == "" {
			current = pair.Parent
			text.WriteString(current)
			text.WriteByte('\n')
		} else if !natsort.Equal(current, pair.Parent) {
			current = pair.Parent
			text.WriteByte('\n')
			text.WriteString(current)
			text.WriteByte('\n')
		}
		text.WriteString(pair.Child)
		text.WriteByte('\n')
	}
	return os.WriteFile(filepath.Join(systemPath, "patch.txt"), []byte(text.String()), 0644)
}

func (s *Service) writeMediaManifest(systemPath string, systemID int64) error {
	names, err := s.store.MediaNames(systemID)
	if err != nil {
		return err
	}
	var text strings.Builder
	for _, name := range names {
		text.WriteString(name)
		text.WriteByte('\n')
	}
	return os.WriteFile(filepath.Join(systemPath, "media.txt"), []byte(text.String()), 0644)
}

// writeTagTree writes one <name>.txt or <name>.<value>.txt file per
// distinct tag, each listing its members in natural order.
func writeTagTree(dir string, members []database.TagMember) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	byFile := make(map[string][]string)
	for _, m := range members {
		fileName := m.Name + ".txt"
		if m.Value != "" {
			fileName = m.Name + "." + m.Value + ".txt"
		}
		byFile[fileName] = append(byFile[fileName], m.Member)
	}

	names := make([]string, 0, len(byFile))
	for name := range byFile {
		names = append(names, name)
	}
	natsort.Sort(names)

	for _, name := range names {
		lines := byFile[name]
		natsort.Sort(lines)
		var text strings.Builder
		for _, line := range lines {
			text.WriteString(line)
			text.WriteByte('\n')
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text.String()), 0644); err != nil {
			return err
		}
	}
	return nil
}
