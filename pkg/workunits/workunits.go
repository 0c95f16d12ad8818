// Package workunits produces the ordered, deduplicated identifier lists
// the collection pipeline works through: account handles or post URLs.
package workunits

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"igcollect/pkg/errors"
	"igcollect/pkg/models"
	"igcollect/pkg/normalize"
)

// Dedupe removes duplicate identifiers, case-sensitive exact match,
// preserving first-seen order.
func Dedupe(units []string) []string {
	seen := make(map[string]struct{}, len(units))
	out := make([]string, 0, len(units))
	for _, u := range units {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// FromFile reads one identifier per line, skipping blanks and comments.
// Returns a no_work_units error when the file yields nothing.
func FromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NoWorkUnits(fmt.Sprintf("work-unit file %s not found", path))
		}
		return nil, fmt.Errorf("failed to open work-unit file: %w", err)
	}
	defer f.Close()

	var units []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		units = append(units, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read work-unit file: %w", err)
	}

	units = Dedupe(units)
	if len(units) == 0 {
		return nil, errors.NoWorkUnits(fmt.Sprintf("work-unit file %s is empty", path))
	}
	return units, nil
}

// FromRecords extracts handles from raw records already collected (e.g.
// the follower store feeding the enrichment run).
func FromRecords(records []models.RawRecord) ([]string, error) {
	units := make([]string, 0, len(records))
	for _, rec := range records {
		if h := normalize.Normalize(rec).Handle; h != "" {
			units = append(units, h)
		}
	}
	units = Dedupe(units)
	if len(units) == 0 {
		return nil, errors.NoWorkUnits("no handles found in the collected follower records")
	}
	return units, nil
}

// FromFollowerEntries extracts handles from parsed follower entries
func FromFollowerEntries(entries []models.FollowerEntry) ([]string, error) {
	units := make([]string, 0, len(entries))
	for _, e := range entries {
		units = append(units, e.Handle)
	}
	units = Dedupe(units)
	if len(units) == 0 {
		return nil, errors.NoWorkUnits("no handles found in the parsed follower list")
	}
	return units, nil
}

// PostURLs extracts post URLs from collected post records, preferring the
// canonical URL field and falling back to the display URL.
func PostURLs(records []models.RawRecord) ([]string, error) {
	urls := make([]string, 0, len(records))
	for _, rec := range records {
		if u := rec.String("url", "postUrl", "displayUrl"); u != "" {
			urls = append(urls, u)
		}
	}
	urls = Dedupe(urls)
	if len(urls) == 0 {
		return nil, errors.NoWorkUnits("no post URLs found; run 'igcollect posts' first")
	}
	return urls, nil
}
