package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"igcollect/pkg/logger"
	"igcollect/pkg/models"
)

// KeyFunc extracts the work-unit identifier a raw record is keyed by
type KeyFunc func(models.RawRecord) string

// ProfileKey keys profile-shaped records by account handle
func ProfileKey(r models.RawRecord) string {
	return r.String("username", "userName", "handle")
}

// PostURLKey keys comment-run records by the post they belong to
func PostURLKey(r models.RawRecord) string {
	return r.String("postUrl", "post_url", "url")
}

// CommentKey dedupes comment records on the upstream comment id, falling
// back to post URL plus commenter for sources without one
func CommentKey(r models.RawRecord) string {
	if id := r.String("id", "commentId", "comment_id"); id != "" {
		return id
	}
	post := PostURLKey(r)
	owner := r.String("ownerUsername", "owner_username", "username")
	if post == "" && owner == "" {
		return ""
	}
	return post + "#" + owner + "#" + r.String("text")
}

// JSONStore is a durable collection of raw records persisted as one JSON
// document. The whole document is loaded on open and rewritten atomically
// at each checkpoint. Records are uniquely keyed by their work-unit
// identifier; re-collection overwrites, never duplicates.
type JSONStore struct {
	path    string
	key     KeyFunc
	records []models.RawRecord
	index   map[string]int
	logger  logger.Logger
}

// OpenJSON opens a JSON document store, loading existing records when the
// file is present. Absence is not an error; it means an empty store.
func OpenJSON(path string, key KeyFunc) (*JSONStore, error) {
	s := &JSONStore{
		path:   path,
		key:    key,
		index:  make(map[string]int),
		logger: logger.GetLogger(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store %s: %w", path, err)
	}

	var records []models.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
	}

	for _, rec := range records {
		s.insert(rec)
	}

	s.logger.DebugWithFields("result store loaded", map[string]interface{}{
		"path":    path,
		"records": len(s.records),
	})

	return s, nil
}

func (s *JSONStore) insert(rec models.RawRecord) bool {
	id := s.key(rec)
	if id == "" {
		// Unkeyable records are kept but cannot deduplicate
		s.records = append(s.records, rec)
		return true
	}
	if i, ok := s.index[id]; ok {
		s.records[i] = rec
		return false
	}
	s.index[id] = len(s.records)
	s.records = append(s.records, rec)
	return true
}

// Append merges records into the store, keyed by identifier. Returns the
// number of records that were new rather than overwrites.
func (s *JSONStore) Append(recs ...models.RawRecord) int {
	added := 0
	for _, rec := range recs {
		if s.insert(rec) {
			added++
		}
	}
	return added
}

// Identifiers returns the set of work-unit identifiers already represented
func (s *JSONStore) Identifiers() map[string]struct{} {
	done := make(map[string]struct{}, len(s.index))
	for id := range s.index {
		done[id] = struct{}{}
	}
	return done
}

// Records returns all records in insertion order
func (s *JSONStore) Records() []models.RawRecord {
	return s.records
}

// Len returns the number of records held
func (s *JSONStore) Len() int {
	return len(s.records)
}

// Path returns the backing file path
func (s *JSONStore) Path() string {
	return s.path
}

// GroupedStore is a JSONStore whose resume identifier is coarser than its
// dedupe key: many records belong to one work unit. Comment runs use it,
// deduped per comment but resumed per post URL.
type GroupedStore struct {
	*JSONStore
	unit KeyFunc
}

// OpenGrouped opens a grouped JSON store. dedupe keys individual records;
// unit maps each record to the work-unit identifier resume is keyed by.
func OpenGrouped(path string, dedupe, unit KeyFunc) (*GroupedStore, error) {
	inner, err := OpenJSON(path, dedupe)
	if err != nil {
		return nil, err
	}
	return &GroupedStore{JSONStore: inner, unit: unit}, nil
}

// Identifiers returns the set of work units any stored record belongs to
func (s *GroupedStore) Identifiers() map[string]struct{} {
	done := make(map[string]struct{})
	for _, rec := range s.records {
		if u := s.unit(rec); u != "" {
			done[u] = struct{}{}
		}
	}
	return done
}

// Save writes the store to disk atomically via a temp file and rename.
// This is the crash-recovery checkpoint: an interrupt never leaves a
// truncated document behind.
func (s *JSONStore) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.records); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync store file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close store file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	s.logger.DebugWithFields("result store saved", map[string]interface{}{
		"path":    s.path,
		"records": len(s.records),
	})

	return nil
}
