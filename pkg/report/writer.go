package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"igcollect/pkg/models"
	"igcollect/pkg/store"
)

// Report file names within the reports directory
const (
	FileAllFollowers           = "all_followers.csv"
	FileNoteworthy             = "noteworthy_accounts.csv"
	FileLocalCollaborators     = "local_collaborators.csv"
	FileLargeFollowings        = "large_followings.csv"
	FileBusinessAccounts       = "business_accounts.csv"
	FileFollowerGrowth         = "follower_growth.csv"
	FileMutualFollows          = "mutual_follows.csv"
	FileNotFollowingBack       = "not_following_back.csv"
	FileTopCommenters          = "top_commenters.csv"
	FileCommentersNotFollowing = "commenters_not_following.csv"
)

// Inputs carries everything the full report set derives from. Followers,
// following and comments are optional; views needing absent inputs are
// skipped.
type Inputs struct {
	Profiles  []models.NormalizedRecord
	Followers []models.FollowerEntry
	Following []models.FollowerEntry
	Comments  []models.Comment
}

// WriteAll writes every derivable report into dir and returns the paths
// written, keyed by file name
func (g *Generator) WriteAll(dir string, in Inputs) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}

	written := map[string]string{}
	write := func(name string, fn func(path string) error) error {
		path := filepath.Join(dir, name)
		if err := fn(path); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		written[name] = path
		return nil
	}

	if len(in.Profiles) > 0 {
		profileViews := map[string][]models.NormalizedRecord{
			FileAllFollowers:       g.AllFollowers(in.Profiles),
			FileNoteworthy:         g.Noteworthy(in.Profiles),
			FileLocalCollaborators: g.LocalCollaborators(in.Profiles),
			FileLargeFollowings:    g.LargeFollowings(in.Profiles),
			FileBusinessAccounts:   g.BusinessAccounts(in.Profiles),
		}
		for name, recs := range profileViews {
			recs := recs
			if err := write(name, func(path string) error {
				return WriteProfiles(path, recs)
			}); err != nil {
				return written, err
			}
		}
	}

	if len(in.Followers) > 0 {
		if err := write(FileFollowerGrowth, func(path string) error {
			return writeGrowth(path, g.FollowerGrowth(in.Followers))
		}); err != nil {
			return written, err
		}
	}

	if len(in.Followers) > 0 && len(in.Following) > 0 {
		if err := write(FileMutualFollows, func(path string) error {
			return writeHandles(path, g.MutualFollows(in.Followers, in.Following))
		}); err != nil {
			return written, err
		}
		if err := write(FileNotFollowingBack, func(path string) error {
			return writeHandles(path, g.NotFollowingBack(in.Followers, in.Following))
		}); err != nil {
			return written, err
		}
	}

	if len(in.Comments) > 0 {
		if err := write(FileTopCommenters, func(path string) error {
			return writeCommenters(path, g.TopCommenters(in.Comments))
		}); err != nil {
			return written, err
		}
		if len(in.Followers) > 0 {
			if err := write(FileCommentersNotFollowing, func(path string) error {
				return writeCommenters(path, g.CommentersNotFollowing(in.Comments, in.Followers))
			}); err != nil {
				return written, err
			}
		}
	}

	g.logger.InfoWithFields("reports written", map[string]interface{}{
		"dir":     dir,
		"reports": len(written),
	})
	return written, nil
}

// WriteProfiles writes profile records in the canonical column order
func WriteProfiles(path string, recs []models.NormalizedRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, store.RecordRow(r))
	}
	return writeCSV(path, store.RecordHeader(), rows)
}

func writeGrowth(path string, points []GrowthPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{p.Month, strconv.Itoa(p.New), strconv.Itoa(p.Cumulative)})
	}
	return writeCSV(path, []string{"month", "new_followers", "cumulative"}, rows)
}

func writeHandles(path string, handles []string) error {
	rows := make([][]string, 0, len(handles))
	for _, h := range handles {
		rows = append(rows, []string{h})
	}
	return writeCSV(path, []string{"handle"}, rows)
}

func writeCommenters(path string, counts []CommenterCount) error {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Handle, strconv.Itoa(c.Comments)})
	}
	return writeCSV(path, []string{"handle", "comment_count"}, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
