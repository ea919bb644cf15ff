package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/romdb/romdb/internal/database"
)

func newStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.OpenOrCreate(filepath.Join(t.TempDir(), "romdb.db"), "")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := database.Open(filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.db")
	if err := os.WriteFile(path, []byte("not a database"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := database.Open(path); err == nil {
		t.Fatal("expected error for a non-romdb file")
	}
}

func TestOpenOrCreateThenOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "romdb.db")
	store, err := database.OpenOrCreate(path, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.Close()

	reopened, err := database.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()
}

func TestOpenOrCreateUserSchema(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.sql")
	// A deliberately reduced schema: missing tables must fail the
	// validity probe.
	if err := os.WriteFile(schemaPath, []byte("CREATE TABLE system(id INTEGER PRIMARY KEY, name TEXT, code TEXT);"), 0644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if _, err := database.OpenOrCreate(filepath.Join(dir, "romdb.db"), schemaPath); err == nil {
		t.Fatal("expected validity failure for incomplete user schema")
	}
}

func TestUpsertSystemIdempotent(t *testing.T) {
	store := newStore(t)

	first, err := store.UpsertSystem("Super NES", "snes")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Codes compare case-insensitively; the second upsert must not
	// create a new row or rename the first one.
	second, err := store.UpsertSystem("Renamed", "SNES")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ids differ: %d vs %d", first.ID, second.ID)
	}
	if second.Name != "Super NES" {
		t.Errorf("name changed to %q", second.Name)
	}
}

func TestUpsertMediaUniquePerSystem(t *testing.T) {
	store := newStore(t)

	a, _ := store.UpsertSystem("System A", "a")
	b, _ := store.UpsertSystem("System B", "b")

	idA1, err := store.UpsertMedia("Game X", a.ID)
	if err != nil {
		t.Fatalf("upsert media: %v", err)
	}
	idA2, _ := store.UpsertMedia("Game X", a.ID)
	idB, _ := store.UpsertMedia("Game X", b.ID)

	if idA1 != idA2 {
		t.Errorf("same media upserted twice: %d vs %d", idA1, idA2)
	}
	if idA1 == idB {
		t.Error("media rows must be per-system")
	}
}

func TestInsertFileUniquePerMedia(t *testing.T) {
	store := newStore(t)
	sys, _ := store.UpsertSystem("System", "sys")
	mediaID, _ := store.UpsertMedia("Game", sys.ID)

	if err := store.InsertFile("Game.rom", []byte("AAAA"), 4, "", mediaID); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// The duplicate insert is a no-op, not an error.
	if err := store.InsertFile("Game.rom", []byte("BBBB"), 4, "", mediaID); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	id, err := store.FileID("Game.rom", mediaID)
	if err != nil || id == 0 {
		t.Fatalf("file id: %d, %v", id, err)
	}
	row, err := store.FileData(id)
	if err != nil {
		t.Fatalf("file data: %v", err)
	}
	if string(row.Data) != "AAAA" {
		t.Errorf("first insert overwritten: %q", row.Data)
	}
}

func TestUpsertChecksumReplaces(t *testing.T) {
	store := newStore(t)
	sys, _ := store.UpsertSystem("System", "sys")
	mediaID, _ := store.UpsertMedia("Game", sys.ID)
	if err := store.InsertFile("Game.rom", []byte("AAAA"), 4, "", mediaID); err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := store.FileID("Game.rom", mediaID)

	if err := store.UpsertChecksum(id, "sha256", "aaaa"); err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if err := store.UpsertChecksum(id, "sha256", "bbbb"); err != nil {
		t.Fatalf("checksum update: %v", err)
	}

	checksum, ok, err := store.FirstChecksum(id)
	if err != nil || !ok {
		t.Fatalf("first checksum: %v, %v", ok, err)
	}
	if checksum.Data != "bbbb" {
		t.Errorf("digest not replaced: %q", checksum.Data)
	}
}

func TestUpsertTagUnique(t *testing.T) {
	store := newStore(t)

	id1, err := store.UpsertTag("region", "usa")
	if err != nil {
		t.Fatalf("upsert tag: %v", err)
	}
	id2, _ := store.UpsertTag("region", "usa")
	id3, _ := store.UpsertTag("region", "")

	if id1 != id2 {
		t.Errorf("same tag upserted twice: %d vs %d", id1, id2)
	}
	if id1 == id3 {
		t.Error("distinct values must be distinct tags")
	}
}

func TestFileIDOutsideSystem(t *testing.T) {
	store := newStore(t)

	a, _ := store.UpsertSystem("System A", "a")
	b, _ := store.UpsertSystem("System B", "b")
	mediaA, _ := store.UpsertMedia("Shared", a.ID)
	mediaB, _ := store.UpsertMedia("Shared", b.ID)
	if err := store.InsertFile("Shared.rom", []byte("AAAA"), 4, "", mediaA); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.InsertFile("Shared.rom", nil, 4, "", mediaB); err != nil {
		t.Fatalf("insert: %v", err)
	}

	wantID, _ := store.FileID("Shared.rom", mediaA)

	id, err := store.FileIDOutsideSystem("Shared.rom", b.ID)
	if err != nil {
		t.Fatalf("cross-system lookup: %v", err)
	}
	if id != wantID {
		t.Errorf("got %d, want %d (the A-owned row)", id, wantID)
	}

	// From A's perspective the only other owner is B.
	idFromA, _ := store.FileIDOutsideSystem("Shared.rom", a.ID)
	wantB, _ := store.FileID("Shared.rom", mediaB)
	if idFromA != wantB {
		t.Errorf("got %d, want %d", idFromA, wantB)
	}
}

func TestSetFilePayload(t *testing.T) {
	store := newStore(t)
	sys, _ := store.UpsertSystem("System", "sys")
	mediaID, _ := store.UpsertMedia("Game", sys.ID)
	if err := store.InsertFile("Game (USA).rom", []byte("AAAA"), 4, "", mediaID); err != nil {
		t.Fatalf("insert parent: %v", err)
	}
	if err := store.InsertFile("Game (EUR).rom", nil, 4, "", mediaID); err != nil {
		t.Fatalf("insert child: %v", err)
	}
	parentID, _ := store.FileID("Game (USA).rom", mediaID)
	childID, _ := store.FileID("Game (EUR).rom", mediaID)

	if err := store.SetFilePayload(childID, []byte("patch"), "deflate", parentID); err != nil {
		t.Fatalf("set payload: %v", err)
	}

	row, err := store.FileData(childID)
	if err != nil {
		t.Fatalf("file data: %v", err)
	}
	if !row.HasParent || row.ParentID != parentID {
		t.Errorf("parent link: %+v", row)
	}
	if row.Compression != "deflate" || string(row.Data) != "patch" {
		t.Errorf("payload: %+v", row)
	}
}
