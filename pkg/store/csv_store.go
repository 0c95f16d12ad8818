package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"igcollect/pkg/logger"
	"igcollect/pkg/models"
)

// csvHeader is the canonical column order for profile rows
var csvHeader = []string{
	"handle", "ig_user_id", "full_name",
	"follower_count", "following_count",
	"is_verified", "is_private",
	"is_business", "is_professional",
	"category", "bio",
	"external_url", "post_count",
	"profile_pic_url", "follow_date",
}

// RecordHeader returns the canonical profile column order
func RecordHeader() []string {
	return append([]string(nil), csvHeader...)
}

// RecordRow renders one record in the canonical column order
func RecordRow(rec models.NormalizedRecord) []string {
	return []string{
		rec.Handle,
		rec.ExternalID,
		rec.FullName,
		strconv.Itoa(rec.FollowerCount),
		strconv.Itoa(rec.FollowingCount),
		strconv.FormatBool(rec.IsVerified),
		strconv.FormatBool(rec.IsPrivate),
		strconv.FormatBool(rec.IsBusiness),
		strconv.FormatBool(rec.IsProfessional),
		rec.Category,
		rec.Bio,
		rec.ExternalURL,
		strconv.Itoa(rec.PostCount),
		rec.ProfilePicURL,
		rec.FollowDate,
	}
}

// ReadCSV loads every profile row from a canonical store file. Columns are
// matched by header name so older files with fewer columns still load.
func ReadCSV(path string) ([]models.NormalizedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	num := func(row []string, name string) int {
		n, _ := strconv.Atoi(field(row, name))
		return n
	}
	flag := func(row []string, name string) bool {
		return field(row, name) == "true"
	}

	records := make([]models.NormalizedRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || field(row, "handle") == "" {
			continue
		}
		records = append(records, models.NormalizedRecord{
			Handle:         field(row, "handle"),
			ExternalID:     field(row, "ig_user_id"),
			FullName:       field(row, "full_name"),
			FollowerCount:  num(row, "follower_count"),
			FollowingCount: num(row, "following_count"),
			IsVerified:     flag(row, "is_verified"),
			IsPrivate:      flag(row, "is_private"),
			IsBusiness:     flag(row, "is_business"),
			IsProfessional: flag(row, "is_professional"),
			Category:       field(row, "category"),
			Bio:            field(row, "bio"),
			ExternalURL:    field(row, "external_url"),
			PostCount:      num(row, "post_count"),
			ProfilePicURL:  field(row, "profile_pic_url"),
			FollowDate:     field(row, "follow_date"),
		})
	}
	return records, nil
}

// CSVStore is a row-oriented result store for normalized profile records.
// Rows are appended one at a time so the per-unit enrichment loop
// checkpoints after every collected unit. Already-present handles are
// reloaded on open to rebuild the resume set.
type CSVStore struct {
	path    string
	handles map[string]struct{}
	file    *os.File
	writer  *csv.Writer
	logger  logger.Logger
}

// OpenCSV opens a row-oriented store, reading existing handles when the
// file is present. Absence means an empty store, not an error.
func OpenCSV(path string) (*CSVStore, error) {
	s := &CSVStore{
		path:    path,
		handles: make(map[string]struct{}),
		logger:  logger.GetLogger(),
	}

	if err := s.loadExisting(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *CSVStore) loadExisting() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // header
		}
		if row[0] != "" {
			s.handles[row[0]] = struct{}{}
		}
	}

	s.logger.DebugWithFields("csv store loaded", map[string]interface{}{
		"path":    s.path,
		"handles": len(s.handles),
	})

	return nil
}

// open lazily opens the append handle, writing the header for a new file
func (s *CSVStore) open() error {
	if s.writer != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	info, err := os.Stat(s.path)
	newFile := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store %s: %w", s.path, err)
	}

	s.file = f
	s.writer = csv.NewWriter(f)

	if newFile {
		if err := s.writer.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	return nil
}

// Append writes one profile row and flushes it immediately. A handle
// already present is skipped, never duplicated.
func (s *CSVStore) Append(rec models.NormalizedRecord) error {
	if rec.Handle == "" {
		return nil
	}
	if _, ok := s.handles[rec.Handle]; ok {
		return nil
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.writer.Write(RecordRow(rec)); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}

	s.handles[rec.Handle] = struct{}{}
	return nil
}

// Identifiers returns the set of handles already represented
func (s *CSVStore) Identifiers() map[string]struct{} {
	done := make(map[string]struct{}, len(s.handles))
	for h := range s.handles {
		done[h] = struct{}{}
	}
	return done
}

// Len returns the number of handles held
func (s *CSVStore) Len() int {
	return len(s.handles)
}

// Path returns the backing file path
func (s *CSVStore) Path() string {
	return s.path
}

// Close flushes and closes the append handle
func (s *CSVStore) Close() error {
	if s.writer != nil {
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			return err
		}
	}
	if s.file != nil {
		if err := s.file.Sync(); err != nil {
			return err
		}
		return s.file.Close()
	}
	return nil
}
