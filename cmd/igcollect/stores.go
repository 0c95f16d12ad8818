package main

import (
	"fmt"
	"os"

	"igcollect/pkg/auth"
	"igcollect/pkg/config"
	"igcollect/pkg/models"
	"igcollect/pkg/normalize"
	"igcollect/pkg/report"
	"igcollect/pkg/store"
	"igcollect/pkg/ui"
)

// openFollowerStore opens the follower (or following) result store
func openFollowerStore(cfg *config.Config, name string) *store.JSONStore {
	s, err := store.OpenJSON(dataPath(cfg, name), store.ProfileKey)
	if err != nil {
		ui.PrintError("Failed to open store", err.Error())
		os.Exit(1)
	}
	return s
}

// openPostStore opens the post result store keyed by post URL
func openPostStore(cfg *config.Config) *store.JSONStore {
	s, err := store.OpenJSON(dataPath(cfg, postsFile), store.PostURLKey)
	if err != nil {
		ui.PrintError("Failed to open post store", err.Error())
		os.Exit(1)
	}
	return s
}

// openCommentStore opens the comment store, deduped per comment and
// resumed per post URL
func openCommentStore(cfg *config.Config) *store.GroupedStore {
	s, err := store.OpenGrouped(dataPath(cfg, commentsFile), store.CommentKey, store.PostURLKey)
	if err != nil {
		ui.PrintError("Failed to open comment store", err.Error())
		os.Exit(1)
	}
	return s
}

// entriesToRaw converts parsed follower entries into store records so the
// export strategy and the collection strategies share one follower store.
func entriesToRaw(entries []models.FollowerEntry) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(entries))
	for _, e := range entries {
		rec := models.RawRecord{"username": e.Handle}
		if e.FollowDate != "" {
			rec["follow_date"] = e.FollowDate
		}
		if e.ProfileURL != "" {
			rec["profile_url"] = e.ProfileURL
		}
		out = append(out, rec)
	}
	return out
}

// rawToEntries converts stored follower records back into entries
func rawToEntries(records []models.RawRecord) []models.FollowerEntry {
	out := make([]models.FollowerEntry, 0, len(records))
	for _, rec := range records {
		handle := store.ProfileKey(rec)
		if handle == "" {
			continue
		}
		out = append(out, models.FollowerEntry{
			Handle:     handle,
			FollowDate: rec.String("follow_date", "followDate"),
			ProfileURL: rec.String("profile_url", "profileUrl"),
		})
	}
	return out
}

// rawToComments converts stored comment records into the comment model
func rawToComments(records []models.RawRecord) []models.Comment {
	out := make([]models.Comment, 0, len(records))
	for _, rec := range records {
		c := models.Comment{
			PostURL:       store.PostURLKey(rec),
			OwnerUsername: rec.String("ownerUsername", "owner_username", "username"),
			Text:          rec.String("text"),
		}
		if likes, ok := rec["likesCount"].(float64); ok {
			c.LikeCount = int(likes)
		}
		if c.OwnerUsername == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// loadProfiles merges both enrichment outputs: the row-oriented CSV from
// direct collection and the JSON document store from actor batches.
// First occurrence of a handle wins, so the CSV (already normalized at
// collection time) takes precedence.
func loadProfiles(cfg *config.Config) ([]models.NormalizedRecord, error) {
	recs, err := store.ReadCSV(dataPath(cfg, profilesCSV))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile rows: %w", err)
	}

	js, err := store.OpenJSON(dataPath(cfg, profilesJSON), store.ProfileKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		seen[r.Handle] = struct{}{}
	}
	for _, r := range normalize.NormalizeAll(js.Records()) {
		if _, ok := seen[r.Handle]; ok {
			continue
		}
		seen[r.Handle] = struct{}{}
		recs = append(recs, r)
	}
	return recs, nil
}

// loadReportInputs assembles everything the report generator can derive
// views from. Absent stores yield empty slices, not errors.
func loadReportInputs(cfg *config.Config) (report.Inputs, error) {
	var in report.Inputs

	profiles, err := loadProfiles(cfg)
	if err != nil {
		return in, err
	}
	in.Profiles = profiles

	followers := openFollowerStore(cfg, followersFile)
	in.Followers = rawToEntries(followers.Records())

	following := openFollowerStore(cfg, followingFile)
	in.Following = rawToEntries(following.Records())

	comments := openCommentStore(cfg)
	in.Comments = rawToComments(comments.Records())

	// Carry follow dates onto the enriched rows so growth views work from
	// either input
	dates := make(map[string]string, len(in.Followers))
	for _, e := range in.Followers {
		if e.FollowDate != "" {
			dates[e.Handle] = e.FollowDate
		}
	}
	for i := range in.Profiles {
		if in.Profiles[i].FollowDate == "" {
			in.Profiles[i].FollowDate = dates[in.Profiles[i].Handle]
		}
	}

	return in, nil
}

// resolveCredentials loads the credential set for this invocation and
// applies the session half to the config. Returns the credentials so
// callers can check for an API token.
func resolveCredentials(cfg *config.Config) (*auth.Credentials, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var creds *auth.Credentials
	if accountLabel != "" {
		creds, err = manager.Retrieve(accountLabel)
		if err != nil {
			return nil, fmt.Errorf("credential set %q not found; run 'igcollect auth login'", accountLabel)
		}
	} else {
		creds, err = manager.RetrieveDefault()
		if err != nil {
			return nil, err
		}
	}

	creds.ApplyToConfig(cfg)
	return creds, nil
}

// requireAPIToken resolves credentials and insists on the actor service half
func requireAPIToken(cfg *config.Config) (string, error) {
	creds, err := resolveCredentials(cfg)
	if err != nil {
		return "", fmt.Errorf("no credentials found: %w; run 'igcollect auth login' or set APIFY_TOKEN", err)
	}
	if !creds.HasAPIToken() {
		return "", fmt.Errorf("stored credentials have no API token; run 'igcollect auth login' or set APIFY_TOKEN")
	}
	return creds.APIToken, nil
}

// requireSession resolves credentials and insists on the cookie half
func requireSession(cfg *config.Config) error {
	if cfg.Instagram.SessionID != "" && cfg.Instagram.CSRFToken != "" {
		return nil
	}
	creds, err := resolveCredentials(cfg)
	if err != nil {
		return fmt.Errorf("no credentials found: %w; run 'igcollect auth login' or set IG_SESSION_ID and IG_CSRF_TOKEN", err)
	}
	if !creds.HasSession() {
		return fmt.Errorf("stored credentials have no session cookies; run 'igcollect auth login'")
	}
	return nil
}
