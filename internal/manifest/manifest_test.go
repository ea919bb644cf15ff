package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/romdb/romdb/internal/manifest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSplitLines(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\n\nb\n", []string{"a", "", "b"}},
		{"a", []string{"a"}},
	}
	for _, c := range cases {
		got := manifest.SplitLines(c.in)
		if len(got) != len(c.want) {
			t.Errorf("SplitLines(%q) = %q, want %q", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("SplitLines(%q) = %q, want %q", c.in, got, c.want)
				break
			}
		}
	}
}

func TestFilePathConfigOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "media.txt"), "Base\n")
	writeFile(t, filepath.Join(dir, "media.eur.txt"), "Override\n")

	if got := manifest.FilePath(dir, "media", ""); got != filepath.Join(dir, "media.txt") {
		t.Errorf("no config: got %s", got)
	}
	if got := manifest.FilePath(dir, "media", "eur"); got != filepath.Join(dir, "media.eur.txt") {
		t.Errorf("config eur: got %s", got)
	}
	// A configuration with no override file falls back to the base file.
	if got := manifest.FilePath(dir, "media", "jpn"); got != filepath.Join(dir, "media.txt") {
		t.Errorf("config jpn: got %s", got)
	}
}

func TestReadSystem(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "system.txt"), "snes\nSuper NES\nXZ\nSHA256\n")

		sys, err := manifest.ReadSystem(dir, "")
		if err != nil {
			t.Fatalf("read system: %v", err)
		}
		if sys.Code != "snes" || sys.Name != "Super NES" {
			t.Errorf("got %q/%q", sys.Code, sys.Name)
		}
		if sys.Compression != "xz" || sys.Hash != "sha256" {
			t.Errorf("algorithms not lowercased: %q/%q", sys.Compression, sys.Hash)
		}
	})

	t.Run("two lines only", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "system.txt"), "gb\nGame Boy\n")

		sys, err := manifest.ReadSystem(dir, "")
		if err != nil {
			t.Fatalf("read system: %v", err)
		}
		if sys.Compression != "" || sys.Hash != "" {
			t.Errorf("expected empty algorithms, got %q/%q", sys.Compression, sys.Hash)
		}
	})

	t.Run("short", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "system.txt"), "snes\n")
		if _, err := manifest.ReadSystem(dir, ""); err == nil {
			t.Fatal("expected error for one-line system.txt")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := manifest.ReadSystem(t.TempDir(), ""); err == nil {
			t.Fatal("expected error for missing system.txt")
		}
	})
}

func TestReadTags(t *testing.T) {
	dir := t.TempDir()
	tagDir := filepath.Join(dir, "mediatag")
	writeFile(t, filepath.Join(tagDir, "region.usa.txt"), "Game X\n")
	writeFile(t, filepath.Join(tagDir, "favorite.txt"), "Game X\nGame Y\n")
	writeFile(t, filepath.Join(tagDir, "notes.md"), "ignored\n")

	tags, err := manifest.ReadTags(tagDir)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}

	gameX := tags["game x"]
	if len(gameX) != 2 {
		t.Fatalf("Game X has %d tags, want 2: %v", len(gameX), gameX)
	}
	found := map[manifest.Tag]bool{}
	for _, tag := range gameX {
		found[tag] = true
	}
	if !found[manifest.Tag{Name: "region", Value: "usa"}] {
		t.Error("missing region=usa tag")
	}
	if !found[manifest.Tag{Name: "favorite", Value: ""}] {
		t.Error("missing favorite tag")
	}

	if len(tags["game y"]) != 1 {
		t.Errorf("Game Y tags: %v", tags["game y"])
	}
}

func TestReadTagsMissingDir(t *testing.T) {
	tags, err := manifest.ReadTags(filepath.Join(t.TempDir(), "mediatag"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if tags != nil {
		t.Fatalf("got %v, want nil", tags)
	}
}

func TestReadPatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "patch.txt"),
		"Game X (USA).rom\nGame X (EUR).rom\nGame X (JPN).rom\n\nOther.rom\nOther (Beta).rom\n")

	records, err := manifest.ReadPatches(dir, "")
	if err != nil {
		t.Fatalf("read patches: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if r := records["game x (eur).rom"]; r.Parent != "Game X (USA).rom" {
		t.Errorf("EUR parent = %q", r.Parent)
	}
	if r := records["game x (jpn).rom"]; r.Parent != "Game X (USA).rom" {
		t.Errorf("JPN parent = %q", r.Parent)
	}
	if r := records["other (beta).rom"]; r.Parent != "Other.rom" {
		t.Errorf("Beta parent = %q", r.Parent)
	}
}

func TestReadPatchesMissing(t *testing.T) {
	records, err := manifest.ReadPatches(t.TempDir(), "")
	if err != nil || records != nil {
		t.Fatalf("got %v, %v; want nil, nil", records, err)
	}
}

func TestSortFile(t *testing.T) {
	t.Run("collapses blanks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "list.txt")
		writeFile(t, path, "bbb\naaa\n\nccc\n")

		if err := manifest.SortFile(path); err != nil {
			t.Fatalf("sort: %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "aaa\nbbb\nccc\n" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "list.txt")
		writeFile(t, path, "track10\ntrack2\n\ntrack1\n")

		if err := manifest.SortFile(path); err != nil {
			t.Fatalf("sort: %v", err)
		}
		once, _ := os.ReadFile(path)
		if err := manifest.SortFile(path); err != nil {
			t.Fatalf("second sort: %v", err)
		}
		twice, _ := os.ReadFile(path)
		if string(once) != string(twice) {
			t.Fatalf("not idempotent: %q then %q", once, twice)
		}
		if string(once) != "track1\ntrack2\ntrack10\n" {
			t.Fatalf("got %q", once)
		}
	})

	t.Run("multiple blanks re-emit all but one", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "list.txt")
		writeFile(t, path, "b\n\n\n\na\n")

		if err := manifest.SortFile(path); err != nil {
			t.Fatalf("sort: %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "a\nb\n\n\n" {
			t.Fatalf("got %q", got)
		}
	})
}
