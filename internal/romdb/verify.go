package romdb

import (
	"github.com/romdb/romdb/internal/hash"
)

// VerifyReport tallies one system's checksum verification.
type VerifyReport struct {
	Code       string
	Name       string
	Good       int64
	Bad        int64
	NoChecksum int64
	BadFiles   []string
}

// Verify recomputes, for every file carrying checksum rows, the digest
// of the stored payload under the file's first checksum algorithm
// (descending name order) and compares it against the recorded value.
// This checks storage corruption, not end-to-end validity: the digest
// covers the bytes exactly as stored, not the reconstructed file.
func (s *Service) Verify() ([]VerifyReport, error) {
	systems, err := s.store.Systems()
	if err != nil {
		return nil, err
	}

	var reports []VerifyReport
	for _, system := range systems {
		report := VerifyReport{Code: system.Code, Name: system.Name}

		mediaIDs, err := s.store.MediaIDs(system.ID)
		if err != nil {
			return nil, err
		}
		for _, mediaID := range mediaIDs {
			files, err := s.store.FilesWithData(mediaID)
			if err != nil {
				return nil, err
			}
			for _, file := range files {
				checksum, ok, err := s.store.FirstChecksum(file.ID)
				if err != nil {
					return nil, err
				}
				if !ok {
					report.NoChecksum++
					continue
				}
				if hash.Compute(file.Data, checksum.Name) == checksum.Data {
					report.Good++
				} else {
					report.Bad++
					report.BadFiles = append(report.BadFiles, file.Name)
				}
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}
