// Package manifest reads the per-system directory of plain-text files
// that declares what to import: system.txt, media.txt, file.txt, the
// optional patch.txt, and the mediatag/ and filetag/ directories.
//
// An optional configuration name selects <basename>.<config>.txt over
// <basename>.txt, giving per-tenant overrides of individual files.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// System is the parsed content of system.txt. Compression and Hash are
// optional (lines 3 and 4) and lowercased.
type System struct {
	Code        string
	Name        string
	Compression string
	Hash        string
}

// Tag is one label from a tag directory. Value may be empty.
type Tag struct {
	Name  string
	Value string
}

// PatchRecord declares that Child is stored as a delta against Parent.
// Names are kept verbatim for reading the files from the pool.
type PatchRecord struct {
	Child  string
	Parent string
}

// SplitLines splits text into lines: \r is stripped, \n separates, and
// the empty segment after a trailing newline is not a line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// FilePath resolves the manifest file for base under dir, honoring the
// configuration override: dir/base.<config>.txt wins over dir/base.txt
// when it exists.
func FilePath(dir, base, config string) string {
	if config != "" {
		p := filepath.Join(dir, base+"."+config+".txt")
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return filepath.Join(dir, base+".txt")
}

// ReadLines reads the manifest file for base under dir and returns its
// lines. Fails when the file is missing or is a directory.
func ReadLines(dir, base, config string) ([]string, error) {
	p := FilePath(dir, base, config)
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s manifest: %w", base, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading %s manifest: %s is a directory", base, p)
	}
	text, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s manifest: %w", base, err)
	}
	return SplitLines(string(text)), nil
}

// ReadSystem parses system.txt: at least two lines (code, name), with
// optional compression and hash algorithm lines.
func ReadSystem(dir, config string) (*System, error) {
	lines, err := ReadLines(dir, "system", config)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("system manifest in %s has %d lines, need at least 2", dir, len(lines))
	}
	sys := &System{Code: lines[0], Name: lines[1]}
	if len(lines) >= 3 {
		sys.Compression = strings.ToLower(lines[2])
	}
	if len(lines) >= 4 {
		sys.Hash = strings.ToLower(lines[3])
	}
	return sys, nil
}

// ReadTags reads a tag directory (mediatag/ or filetag/). Each *.txt
// file names one tag: the stem up to the first dot is the tag name, the
// rest of the stem is the value. Each line is the media or file name
// the tag applies to. The returned map is keyed by lowercased member
// name.
func ReadTags(dir string) (map[string][]Tag, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tag directory %s: %w", dir, err)
	}

	tags := make(map[string][]Tag)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".txt")
		name, value, _ := strings.Cut(stem, ".")
		if name == "" {
			continue
		}

		text, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading tag file %s: %w", entry.Name(), err)
		}
		for _, member := range SplitLines(string(text)) {
			if member == "" {
				continue
			}
			key := strings.ToLower(member)
			tags[key] = append(tags[key], Tag{Name: name, Value: value})
		}
	}
	return tags, nil
}

// ReadPatches parses patch.txt. Within a record the first non-empty
// line is the parent and each following non-empty line a child; a blank
// line terminates the record. The child→parent relation is many-to-one
// and the last declaration for a child wins. The returned map is keyed
// by lowercased child name; a missing or empty patch.txt yields nil.
func ReadPatches(dir, config string) (map[string]PatchRecord, error) {
	p := FilePath(dir, "patch", config)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return nil, nil
	}
	text, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading patch manifest: %w", err)
	}

	records := make(map[string]PatchRecord)
	parent := ""
	for _, line := range SplitLines(string(text)) {
		if line == "" {
			parent = ""
			continue
		}
		if parent == "" {
			parent = line
			continue
		}
		records[strings.ToLower(line)] = PatchRecord{Child: line, Parent: parent}
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}
