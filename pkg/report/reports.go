// Package report derives the analysis views from collected profiles,
// follower lists and comments, writes them as CSV files, and renders an
// HTML dashboard. Every view is a pure function of already-collected data;
// nothing here talks to the network.
package report

import (
	"sort"
	"strings"

	"igcollect/pkg/config"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
)

// Generator derives the report views using the configured thresholds
type Generator struct {
	cfg    config.ReportsConfig
	logger logger.Logger
}

// NewGenerator creates a report generator
func NewGenerator(cfg config.ReportsConfig, log logger.Logger) *Generator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Generator{cfg: cfg, logger: log}
}

// AllFollowers returns every profile sorted by follower count, largest
// first. Ties break on handle so output is stable across runs.
func (g *Generator) AllFollowers(recs []models.NormalizedRecord) []models.NormalizedRecord {
	out := append([]models.NormalizedRecord(nil), recs...)
	sortByFollowers(out)
	return out
}

// Noteworthy returns verified accounts and accounts above the follower
// threshold
func (g *Generator) Noteworthy(recs []models.NormalizedRecord) []models.NormalizedRecord {
	var out []models.NormalizedRecord
	for _, r := range recs {
		if r.IsVerified || r.FollowerCount >= g.cfg.NoteworthyFollowers {
			out = append(out, r)
		}
	}
	sortByFollowers(out)
	return out
}

// LocalCollaborators returns accounts whose bio, full name or category
// mentions one of the configured local keywords
func (g *Generator) LocalCollaborators(recs []models.NormalizedRecord) []models.NormalizedRecord {
	var out []models.NormalizedRecord
	for _, r := range recs {
		haystack := strings.ToLower(r.Bio + " " + r.FullName + " " + r.Category)
		for _, kw := range g.cfg.LocalKeywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				out = append(out, r)
				break
			}
		}
	}
	sortByFollowers(out)
	return out
}

// LargeFollowings returns accounts following at least the configured
// threshold of others. These tend to be follow-for-follow accounts.
func (g *Generator) LargeFollowings(recs []models.NormalizedRecord) []models.NormalizedRecord {
	var out []models.NormalizedRecord
	for _, r := range recs {
		if r.FollowingCount >= g.cfg.LargeFollowing {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FollowingCount != out[j].FollowingCount {
			return out[i].FollowingCount > out[j].FollowingCount
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}

// BusinessAccounts returns business and professional accounts
func (g *Generator) BusinessAccounts(recs []models.NormalizedRecord) []models.NormalizedRecord {
	var out []models.NormalizedRecord
	for _, r := range recs {
		if r.IsBusiness || r.IsProfessional {
			out = append(out, r)
		}
	}
	sortByFollowers(out)
	return out
}

// GrowthPoint is one month of follower growth
type GrowthPoint struct {
	Month      string // YYYY-MM
	New        int
	Cumulative int
}

// FollowerGrowth buckets dated follower entries by month and accumulates.
// Entries without a follow date are ignored.
func (g *Generator) FollowerGrowth(entries []models.FollowerEntry) []GrowthPoint {
	perMonth := map[string]int{}
	for _, e := range entries {
		if len(e.FollowDate) < 7 {
			continue
		}
		perMonth[e.FollowDate[:7]]++
	}

	months := make([]string, 0, len(perMonth))
	for m := range perMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]GrowthPoint, 0, len(months))
	total := 0
	for _, m := range months {
		total += perMonth[m]
		out = append(out, GrowthPoint{Month: m, New: perMonth[m], Cumulative: total})
	}
	return out
}

// MutualFollows returns handles present in both the follower list and the
// following list, in follower-list order
func (g *Generator) MutualFollows(followers, following []models.FollowerEntry) []string {
	followingSet := entrySet(following)
	var out []string
	for _, f := range followers {
		if _, ok := followingSet[f.Handle]; ok {
			out = append(out, f.Handle)
		}
	}
	return out
}

// NotFollowingBack returns accounts the user follows that do not follow
// back, in following-list order
func (g *Generator) NotFollowingBack(followers, following []models.FollowerEntry) []string {
	followerSet := entrySet(followers)
	var out []string
	for _, f := range following {
		if _, ok := followerSet[f.Handle]; !ok {
			out = append(out, f.Handle)
		}
	}
	return out
}

// CommenterCount is one commenter and how many comments they left
type CommenterCount struct {
	Handle   string
	Comments int
}

// TopCommenters counts comments per author, most active first
func (g *Generator) TopCommenters(comments []models.Comment) []CommenterCount {
	counts := map[string]int{}
	for _, c := range comments {
		if c.OwnerUsername == "" {
			continue
		}
		counts[c.OwnerUsername]++
	}

	out := make([]CommenterCount, 0, len(counts))
	for handle, n := range counts {
		out = append(out, CommenterCount{Handle: handle, Comments: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Comments != out[j].Comments {
			return out[i].Comments > out[j].Comments
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}

// CommentersNotFollowing returns commenters who are not in the follower
// list: people engaging without following
func (g *Generator) CommentersNotFollowing(comments []models.Comment, followers []models.FollowerEntry) []CommenterCount {
	followerSet := entrySet(followers)
	var out []CommenterCount
	for _, c := range g.TopCommenters(comments) {
		if _, ok := followerSet[c.Handle]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Summary aggregates the headline numbers over the enriched profile set
type Summary struct {
	Total           int
	Verified        int
	Private         int
	Business        int
	MeanFollowers   float64
	MedianFollowers float64
}

// Summarize computes the headline numbers
func (g *Generator) Summarize(recs []models.NormalizedRecord) Summary {
	s := Summary{Total: len(recs)}
	if len(recs) == 0 {
		return s
	}

	counts := make([]int, 0, len(recs))
	sum := 0
	for _, r := range recs {
		if r.IsVerified {
			s.Verified++
		}
		if r.IsPrivate {
			s.Private++
		}
		if r.IsBusiness || r.IsProfessional {
			s.Business++
		}
		counts = append(counts, r.FollowerCount)
		sum += r.FollowerCount
	}

	s.MeanFollowers = float64(sum) / float64(len(counts))
	sort.Ints(counts)
	mid := len(counts) / 2
	if len(counts)%2 == 1 {
		s.MedianFollowers = float64(counts[mid])
	} else {
		s.MedianFollowers = float64(counts[mid-1]+counts[mid]) / 2
	}
	return s
}

func sortByFollowers(recs []models.NormalizedRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].FollowerCount != recs[j].FollowerCount {
			return recs[i].FollowerCount > recs[j].FollowerCount
		}
		return recs[i].Handle < recs[j].Handle
	})
}

func entrySet(entries []models.FollowerEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Handle] = struct{}{}
	}
	return set
}
