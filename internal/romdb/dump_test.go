package romdb_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/romdb/romdb/internal/testutil"
)

// importSample loads a system with compression, a patch pair and tags.
func importSample(t *testing.T, dir string) map[string]string {
	t.Helper()
	tree := map[string]string{
		"system.txt":              "snes\nSuper NES\nxz\nsha256\n",
		"media.txt":               "Game X\n",
		"file.txt":                "Game X (USA).rom\nGame X (EUR).rom\n",
		"patch.txt":               "Game X (USA).rom\nGame X (EUR).rom\n",
		"files/Game X (USA).rom":  "ABCDEF",
		"files/Game X (EUR).rom":  "ABCDEG",
		"mediatag/region.usa.txt": "Game X\n",
		"filetag/verified.txt":    "Game X (EUR).rom\nGame X (USA).rom\n",
	}
	testutil.WriteTree(t, dir, tree)
	return tree
}

func TestShortDump(t *testing.T) {
	svc, _ := newService(t)
	importDir := t.TempDir()
	importSample(t, importDir)
	if err := svc.Import(importDir, ""); err != nil {
		t.Fatalf("import: %v", err)
	}

	dumpDir := t.TempDir()
	if err := svc.Dump(dumpDir, false); err != nil {
		t.Fatalf("dump: %v", err)
	}

	// Files land directly under <code>/ with no metadata.
	if got := testutil.ReadFile(t, filepath.Join(dumpDir, "snes", "Game X (USA).rom")); got != "ABCDEF" {
		t.Errorf("USA bytes %q", got)
	}
	if got := testutil.ReadFile(t, filepath.Join(dumpDir, "snes", "Game X (EUR).rom")); got != "ABCDEG" {
		t.Errorf("EUR bytes %q", got)
	}
	if _, err := os.Stat(filepath.Join(dumpDir, "snes", "system.txt")); err == nil {
		t.Error("short dump wrote metadata")
	}
}

func TestFullDump(t *testing.T) {
	svc, _ := newService(t)
	importDir := t.TempDir()
	importSample(t, importDir)
	if err := svc.Import(importDir, ""); err != nil {
		t.Fatalf("import: %v", err)
	}

	dumpDir := t.TempDir()
	if err := svc.Dump(dumpDir, true); err != nil {
		t.Fatalf("dump: %v", err)
	}
	systemDir := filepath.Join(dumpDir, "snes")

	if got := testutil.ReadFile(t, filepath.Join(systemDir, "files", "Game X (EUR).rom")); got != "ABCDEG" {
		t.Errorf("EUR bytes %q", got)
	}

	// Six-byte payloads store raw, so the system carries no
	// compression attribute.
	if got := testutil.ReadFile(t, filepath.Join(systemDir, "system.txt")); got != "snes\nSuper NES\nnone\nsha256\n" {
		t.Errorf("system.txt %q", got)
	}
	if got := testutil.ReadFile(t, filepath.Join(systemDir, "media.txt")); got != "Game X\n" {
		t.Errorf("media.txt %q", got)
	}
	if got := testutil.ReadFile(t, filepath.Join(systemDir, "patch.txt")); got != "Game X (USA).rom\nGame X (EUR).rom\n" {
		t.Errorf("patch.txt %q", got)
	}
	// Tag trees regenerate with the same file names and sorted content.
	if got := testutil.ReadFile(t, filepath.Join(systemDir, "mediatag", "region.usa.txt")); got != "Game X\n" {
		t.Errorf("mediatag %q", got)
	}
	if got := testutil.ReadFile(t, filepath.Join(systemDir, "filetag", "verified.txt")); got != "Game X (EUR).rom\nGame X (USA).rom\n" {
		t.Errorf("filetag %q", got)
	}
}

func TestDumpSkipsNonEmptyDirectory(t *testing.T) {
	svc, _ := newService(t)
	importDir := t.TempDir()
	importSample(t, importDir)
	if err := svc.Import(importDir, ""); err != nil {
		t.Fatalf("import: %v", err)
	}

	dumpDir := t.TempDir()
	testutil.WriteTree(t, dumpDir, map[string]string{"snes/existing.txt": "keep\n"})

	if err := svc.Dump(dumpDir, true); err != nil {
		t.Fatalf("dump: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dumpDir, "snes"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "existing.txt" {
		t.Errorf("non-empty directory was written into: %v", entries)
	}
}

// Full dump output imports into a fresh database with identical
// content.
func TestFullDumpReimports(t *testing.T) {
	svc, store := newService(t)
	importDir := t.TempDir()
	importSample(t, importDir)
	if err := svc.Import(importDir, ""); err != nil {
		t.Fatalf("import: %v", err)
	}

	dumpDir := t.TempDir()
	if err := svc.Dump(dumpDir, true); err != nil {
		t.Fatalf("dump: %v", err)
	}

	svc2, store2 := newService(t)
	if err := svc2.Import(filepath.Join(dumpDir, "snes"), ""); err != nil {
		t.Fatalf("reimport: %v", err)
	}

	for _, name := range []string{"Game X (USA).rom", "Game X (EUR).rom"} {
		id1 := mustFileID(t, store, "snes", "Game X", name)
		id2 := mustFileID(t, store2, "snes", "Game X", name)
		data1, err := svc.GetFile(id1)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		data2, err := svc2.GetFile(id2)
		if err != nil {
			t.Fatalf("reimported get %s: %v", name, err)
		}
		if string(data1) != string(data2) {
			t.Errorf("%s differs after round trip", name)
		}
	}

	eurID := mustFileID(t, store2, "snes", "Game X", "Game X (EUR).rom")
	row, err := store2.FileData(eurID)
	if err != nil {
		t.Fatalf("file data: %v", err)
	}
	if !row.HasParent {
		t.Error("patch relation lost in round trip")
	}

	system := mustSystem(t, store2, "snes")
	mediaTags, err := store2.MediaTagMembers(system.ID)
	if err != nil {
		t.Fatalf("media tags: %v", err)
	}
	if len(mediaTags) != 1 || mediaTags[0].Name != "region" {
		t.Errorf("media tags lost: %+v", mediaTags)
	}
	fileTags, err := store2.FileTagMembers(system.ID)
	if err != nil {
		t.Fatalf("file tags: %v", err)
	}
	if len(fileTags) != 2 {
		t.Errorf("file tags lost: %+v", fileTags)
	}
}
