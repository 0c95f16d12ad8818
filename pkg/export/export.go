// Package export parses the official account data export: the follower and
// following lists a user downloads from their account settings. It accepts
// the raw ZIP archive, an unpacked directory, or a single list file, in
// both JSON shapes the export has shipped with plus the older HTML layout.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	errs "igcollect/pkg/errors"
	"igcollect/pkg/models"
)

// exportEntry is one relationship entry in the JSON export
type exportEntry struct {
	Title          string `json:"title"`
	StringListData []struct {
		Href      string `json:"href"`
		Value     string `json:"value"`
		Timestamp int64  `json:"timestamp"`
	} `json:"string_list_data"`
}

// source is one list file pulled out of the archive or directory
type source struct {
	name string
	data []byte
}

// ParseFollowers reads the follower list from path: a ZIP archive, an
// unpacked export directory, or a single followers file. Entries are
// deduplicated by handle, first occurrence wins.
func ParseFollowers(path string) ([]models.FollowerEntry, error) {
	sources, err := collectSources(path, isFollowersFile)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errs.NoWorkUnits(fmt.Sprintf("no follower list files found in %s", path))
	}

	entries, err := parseSources(sources)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errs.NoWorkUnits(fmt.Sprintf("follower list in %s is empty", path))
	}
	return entries, nil
}

// ParseFollowing reads the accounts the exporting user follows
func ParseFollowing(path string) ([]models.FollowerEntry, error) {
	sources, err := collectSources(path, isFollowingFile)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errs.NoWorkUnits(fmt.Sprintf("no following list file found in %s", path))
	}

	entries, err := parseSources(sources)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errs.NoWorkUnits(fmt.Sprintf("following list in %s is empty", path))
	}
	return entries, nil
}

// FilterSince keeps entries followed on or after the given YYYY-MM-DD date.
// Entries without a follow date are dropped, since they cannot satisfy the
// cutoff.
func FilterSince(entries []models.FollowerEntry, since string) ([]models.FollowerEntry, error) {
	cutoff, err := time.Parse("2006-01-02", since)
	if err != nil {
		return nil, fmt.Errorf("invalid --since date %q (want YYYY-MM-DD): %w", since, err)
	}

	var out []models.FollowerEntry
	for _, e := range entries {
		if e.FollowDate == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", e.FollowDate)
		if err != nil {
			continue
		}
		if !d.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func isFollowersFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return strings.HasPrefix(base, "followers") &&
		(strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".html"))
}

func isFollowingFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return strings.HasPrefix(base, "following") &&
		(strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".html"))
}

// collectSources resolves path into the list files it holds
func collectSources(path string, match func(string) bool) ([]source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NoWorkUnits(fmt.Sprintf("export path %s not found", path))
		}
		return nil, fmt.Errorf("failed to stat export path: %w", err)
	}

	switch {
	case info.IsDir():
		return sourcesFromDir(path, match)
	case strings.HasSuffix(strings.ToLower(path), ".zip"):
		return sourcesFromZip(path, match)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return []source{{name: path, data: data}}, nil
	}
}

func sourcesFromDir(dir string, match func(string) bool) ([]source, error) {
	var sources []source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !match(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sources = append(sources, source{name: path, data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk export directory: %w", err)
	}
	return sources, nil
}

func sourcesFromZip(path string, match func(string) bool) ([]source, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export archive: %w", err)
	}
	defer r.Close()

	var sources []source
	for _, f := range r.File {
		if !match(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from archive: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from archive: %w", f.Name, err)
		}
		sources = append(sources, source{name: f.Name, data: data})
	}
	return sources, nil
}

func parseSources(sources []source) ([]models.FollowerEntry, error) {
	var all []models.FollowerEntry
	for _, src := range sources {
		var (
			entries []models.FollowerEntry
			err     error
		)
		if strings.HasSuffix(strings.ToLower(src.name), ".html") {
			entries, err = parseHTML(src.data)
		} else {
			entries, err = parseJSON(src.data)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", src.name, err)
		}
		all = append(all, entries...)
	}
	return dedupeEntries(all), nil
}

// parseJSON handles both shapes the export has used: a bare entry list and
// a single-key wrapper object like {"relationships_followers": [...]}.
func parseJSON(data []byte) ([]models.FollowerEntry, error) {
	var entries []exportEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return convertEntries(entries), nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "unrecognized export JSON shape")
	}
	for key, raw := range wrapper {
		if !strings.HasPrefix(key, "relationships_") {
			continue
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("unrecognized %s shape", key))
		}
		return convertEntries(entries), nil
	}
	return nil, errs.New(errs.ErrorTypeParsing, "no relationships list in export JSON")
}

func convertEntries(entries []exportEntry) []models.FollowerEntry {
	var out []models.FollowerEntry
	for _, e := range entries {
		for _, item := range e.StringListData {
			handle := item.Value
			if handle == "" {
				handle = handleFromURL(item.Href)
			}
			if handle == "" {
				continue
			}

			entry := models.FollowerEntry{
				Handle:     handle,
				ProfileURL: item.Href,
			}
			if item.Timestamp > 0 {
				entry.FollowDate = time.Unix(item.Timestamp, 0).UTC().Format("2006-01-02")
			}
			out = append(out, entry)
		}
	}
	return out
}

// parseHTML handles the older HTML export layout: every follower is an
// anchor pointing at their profile
func parseHTML(data []byte) ([]models.FollowerEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse export HTML: %v", err))
	}

	var out []models.FollowerEntry
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		handle := handleFromURL(href)
		if handle == "" {
			handle = strings.TrimSpace(sel.Text())
		}
		if handle == "" {
			return
		}
		out = append(out, models.FollowerEntry{Handle: handle, ProfileURL: href})
	})
	return out, nil
}

// handleFromURL recovers the handle from a profile URL like
// https://www.instagram.com/somehandle
func handleFromURL(href string) string {
	idx := strings.Index(href, "instagram.com/")
	if idx < 0 {
		return ""
	}
	rest := href[idx+len("instagram.com/"):]
	if q := strings.IndexAny(rest, "?#"); q >= 0 {
		rest = rest[:q]
	}
	return strings.Trim(rest, "/")
}

func dedupeEntries(entries []models.FollowerEntry) []models.FollowerEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.FollowerEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Handle]; ok {
			continue
		}
		seen[e.Handle] = struct{}{}
		out = append(out, e)
	}
	return out
}
