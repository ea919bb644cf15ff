package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// System is one row of the system table.
type System struct {
	ID   int64
	Name string
	Code string
}

// Media is one row of the media table.
type Media struct {
	ID       int64
	Name     string
	SystemID int64
}

// FileInfo identifies a file row without its payload.
type FileInfo struct {
	ID   int64
	Name string
}

// FileData is a file row's payload as needed for reconstruction.
// Compression is empty when the payload is stored raw; ParentID is
// zero when HasParent is false.
type FileData struct {
	Data        []byte
	Size        int64
	Compression string
	ParentID    int64
	HasParent   bool
}

// FileWithData carries a file's stored payload for verification.
type FileWithData struct {
	ID   int64
	Name string
	Data []byte
}

// PatchPair names a stored delta relation within one system.
type PatchPair struct {
	Parent string
	Child  string
}

// TagMember is one (tag, member) assignment used by the full dump.
type TagMember struct {
	Name   string
	Value  string
	Member string
}

// Checksum is one checksum row, name and digest lowercased.
type Checksum struct {
	Name string
	Data string
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNilBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

// UpsertSystem inserts the system row if its code is new and returns
// the stored row either way.
func (s *Store) UpsertSystem(name, code string) (System, error) {
	_, err := s.db.Exec(
		"INSERT INTO system (name, code) VALUES (?, ?) ON CONFLICT(code) DO NOTHING",
		name, code)
	if err != nil {
		return System{}, fmt.Errorf("upserting system %s: %w", code, err)
	}

	var row System
	err = s.db.QueryRow("SELECT id, name, code FROM system WHERE code = ?", code).
		Scan(&row.ID, &row.Name, &row.Code)
	if err != nil {
		return System{}, fmt.Errorf("reading system %s: %w", code, err)
	}
	return row, nil
}

// UpsertMedia inserts the media row if (name, system) is new and
// returns the stored id either way.
func (s *Store) UpsertMedia(name string, systemID int64) (int64, error) {
	_, err := s.db.Exec(
		"INSERT INTO media (name, system_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		name, systemID)
	if err != nil {
		return 0, fmt.Errorf("upserting media %s: %w", name, err)
	}

	var id int64
	err = s.db.QueryRow("SELECT id FROM media WHERE name = ? AND system_id = ?", name, systemID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reading media %s: %w", name, err)
	}
	return id, nil
}

// UpsertTag inserts the tag row if (name, value) is new and returns
// the stored id either way.
func (s *Store) UpsertTag(name, value string) (int64, error) {
	_, err := s.db.Exec(
		"INSERT INTO tag (name, value) VALUES (?, ?) ON CONFLICT DO NOTHING",
		name, value)
	if err != nil {
		return 0, fmt.Errorf("upserting tag %s: %w", name, err)
	}

	var id int64
	err = s.db.QueryRow("SELECT id FROM tag WHERE name = ? AND value = ?", name, value).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reading tag %s: %w", name, err)
	}
	return id, nil
}

// LinkMediaTag attaches a tag to a media row.
func (s *Store) LinkMediaTag(tagID, mediaID int64) error {
	_, err := s.db.Exec(
		"INSERT INTO mediatag (tag_id, media_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		tagID, mediaID)
	if err != nil {
		return fmt.Errorf("linking media tag: %w", err)
	}
	return nil
}

// LinkFileTag attaches a tag to a file row.
func (s *Store) LinkFileTag(tagID, fileID int64) error {
	_, err := s.db.Exec(
		"INSERT INTO filetag (tag_id, file_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		tagID, fileID)
	if err != nil {
		return fmt.Errorf("linking file tag: %w", err)
	}
	return nil
}

// MediaBySystem returns all media of a system, unordered; the grouping
// pass applies the natural descending order itself.
func (s *Store) MediaBySystem(systemID int64) ([]Media, error) {
	rows, err := s.db.Query("SELECT id, name FROM media WHERE system_id = ?", systemID)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	defer rows.Close()

	var media []Media
	for rows.Next() {
		m := Media{SystemID: systemID}
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning media: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

// InsertFile inserts a file row. data may be nil (payload deferred to
// the patch pass) and compression empty (stored raw).
func (s *Store) InsertFile(name string, data []byte, size int64, compression string, mediaID int64) error {
	_, err := s.db.Exec(
		"INSERT INTO file (name, data, size, compression, media_id) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING",
		name, nullIfNilBytes(data), size, nullIfEmpty(compression), mediaID)
	if err != nil {
		return fmt.Errorf("inserting file %s: %w", name, err)
	}
	return nil
}

// FileID returns the id of the named file within a media, or zero when
// absent.
func (s *Store) FileID(name string, mediaID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM file WHERE name = ? AND media_id = ?", name, mediaID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading file %s: %w", name, err)
	}
	return id, nil
}

// FileIDOutsideSystem locates a file by name in any system other than
// the given one. This is the cross-system patch parent fallback.
func (s *Store) FileIDOutsideSystem(name string, systemID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		"SELECT id FROM file WHERE name = ? AND media_id NOT IN (SELECT id FROM media WHERE system_id = ?)",
		name, systemID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cross-system file %s: %w", name, err)
	}
	return id, nil
}

// SetFilePayload rewrites a file row's payload after the patch pass.
// parentID zero clears the parent link (the file is stored non-delta).
func (s *Store) SetFilePayload(fileID int64, data []byte, compression string, parentID int64) error {
	var parent any
	if parentID != 0 {
		parent = parentID
	}
	_, err := s.db.Exec(
		"UPDATE file SET data = ?, compression = ?, parent_id = ? WHERE id = ?",
		nullIfNilBytes(data), nullIfEmpty(compression), parent, fileID)
	if err != nil {
		return fmt.Errorf("updating file %d: %w", fileID, err)
	}
	return nil
}

// UpsertChecksum records a digest for a file, replacing any previous
// digest under the same algorithm name.
func (s *Store) UpsertChecksum(fileID int64, name, digest string) error {
	_, err := s.db.Exec(
		"INSERT INTO checksum (file_id, name, data) VALUES (?, ?, ?) ON CONFLICT(file_id, name) DO UPDATE SET data = excluded.data",
		fileID, name, digest)
	if err != nil {
		return fmt.Errorf("upserting checksum for file %d: %w", fileID, err)
	}
	return nil
}

// FileData returns a file row's payload columns for reconstruction.
func (s *Store) FileData(fileID int64) (FileData, error) {
	var data []byte
	var size int64
	var compression sql.NullString
	var parent sql.NullInt64
	err := s.db.QueryRow(
		"SELECT data, size, compression, parent_id FROM file WHERE id = ?", fileID).
		Scan(&data, &size, &compression, &parent)
	if err != nil {
		return FileData{}, fmt.Errorf("reading file %d: %w", fileID, err)
	}
	return FileData{
		Data:        data,
		Size:        size,
		Compression: compression.String,
		ParentID:    parent.Int64,
		HasParent:   parent.Valid,
	}, nil
}

// Systems returns every system row.
func (s *Store) Systems() ([]System, error) {
	rows, err := s.db.Query("SELECT id, name, code FROM system")
	if err != nil {
		return nil, fmt.Errorf("listing systems: %w", err)
	}
	defer rows.Close()

	var systems []System
	for rows.Next() {
		var sys System
		if err := rows.Scan(&sys.ID, &sys.Name, &sys.Code); err != nil {
			return nil, fmt.Errorf("scanning system: %w", err)
		}
		systems = append(systems, sys)
	}
	return systems, rows.Err()
}

// FilesBySystem returns the id and name of every file in a system, in
// query order.
func (s *Store) FilesBySystem(systemID int64) ([]FileInfo, error) {
	rows, err := s.db.Query(
		"SELECT id, name FROM file WHERE media_id IN (SELECT id FROM media WHERE system_id = ?)",
		systemID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []FileInfo
	for rows.Next() {
		var f FileInfo
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SystemCompression returns the compression algorithm carried by any
// file of the system, or empty when none is compressed.
func (s *Store) SystemCompression(systemID int64) (string, error) {
	var name string
	err := s.db.QueryRow(
		"SELECT LOWER(compression) FROM file WHERE compression IS NOT NULL AND media_id IN (SELECT id FROM media WHERE system_id = ?) LIMIT 1",
		systemID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading system compression: %w", err)
	}
	return name, nil
}

// SystemChecksumName returns the checksum algorithm carried by any
// file of the system, or empty when no file has a checksum.
func (s *Store) SystemChecksumName(systemID int64) (string, error) {
	var name string
	err := s.db.QueryRow(
		"SELECT LOWER(name) FROM checksum WHERE file_id IN (SELECT id FROM file WHERE media_id IN (SELECT id FROM media WHERE system_id = ?)) LIMIT 1",
		systemID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading system checksum name: %w", err)
	}
	return name, nil
}

// PatchPairs returns every (parent, child) delta relation whose parent
// lives in the given system.
func (s *Store) PatchPairs(systemID int64) ([]PatchPair, error) {
	rows, err := s.db.Query(
		"SELECT f2.name, f1.name FROM file f1, file f2 WHERE f1.parent_id IS NOT NULL AND f1.parent_id = f2.id AND f2.media_id IN (SELECT id FROM media WHERE system_id = ?)",
		systemID)
	if err != nil {
		return nil, fmt.Errorf("listing patches: %w", err)
	}
	defer rows.Close()

	var pairs []PatchPair
	for rows.Next() {
		var p PatchPair
		if err := rows.Scan(&p.Parent, &p.Child); err != nil {
			return nil, fmt.Errorf("scanning patch pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// MediaNames returns the media names of a system in query order.
func (s *Store) MediaNames(systemID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM media WHERE system_id = ?", systemID)
	if err != nil {
		return nil, fmt.Errorf("listing media names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning media name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FileTagMembers returns every (tag, file) assignment in a system.
func (s *Store) FileTagMembers(systemID int64) ([]TagMember, error) {
	return s.tagMembers(
		"SELECT t.name, IFNULL(t.value, ''), f.name FROM tag t, file f, filetag ft, media m WHERE t.id = ft.tag_id AND f.id = ft.file_id AND f.media_id = m.id AND m.system_id = ?",
		systemID)
}

// MediaTagMembers returns every (tag, media) assignment in a system.
func (s *Store) MediaTagMembers(systemID int64) ([]TagMember, error) {
	return s.tagMembers(
		"SELECT t.name, IFNULL(t.value, ''), m.name FROM tag t, media m, mediatag mt WHERE t.id = mt.tag_id AND m.id = mt.media_id AND m.system_id = ?",
		systemID)
}

func (s *Store) tagMembers(query string, systemID int64) ([]TagMember, error) {
	rows, err := s.db.Query(query, systemID)
	if err != nil {
		return nil, fmt.Errorf("listing tag members: %w", err)
	}
	defer rows.Close()

	var members []TagMember
	for rows.Next() {
		var m TagMember
		if err := rows.Scan(&m.Name, &m.Value, &m.Member); err != nil {
			return nil, fmt.Errorf("scanning tag member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// MediaIDs returns the media ids of a system.
func (s *Store) MediaIDs(systemID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT id FROM media WHERE system_id = ?", systemID)
	if err != nil {
		return nil, fmt.Errorf("listing media ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning media id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FilesWithData returns every file of a media with its stored payload.
func (s *Store) FilesWithData(mediaID int64) ([]FileWithData, error) {
	rows, err := s.db.Query("SELECT id, name, data FROM file WHERE media_id = ?", mediaID)
	if err != nil {
		return nil, fmt.Errorf("listing files with data: %w", err)
	}
	defer rows.Close()

	var files []FileWithData
	for rows.Next() {
		var f FileWithData
		if err := rows.Scan(&f.ID, &f.Name, &f.Data); err != nil {
			return nil, fmt.Errorf("scanning file data: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FirstChecksum returns a file's checksum row with the highest
// algorithm name in descending order, or false when the file has no
// checksum rows.
func (s *Store) FirstChecksum(fileID int64) (Checksum, bool, error) {
	var c Checksum
	err := s.db.QueryRow(
		"SELECT LOWER(name), LOWER(data) FROM checksum WHERE file_id = ? ORDER BY name DESC LIMIT 1",
		fileID).Scan(&c.Name, &c.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Checksum{}, false, nil
	}
	if err != nil {
		return Checksum{}, false, fmt.Errorf("reading checksum for file %d: %w", fileID, err)
	}
	return c, true, nil
}
