// Package normalize maps heterogeneous upstream record shapes into the one
// canonical profile schema. Each canonical field consults an ordered list
// of source field names; the first non-empty match wins. The mapping is
// pure and total: a record with every field absent still normalizes, with
// numeric fields defaulting to 0 and string fields to "".
package normalize

import (
	"strconv"
	"strings"

	"igcollect/pkg/models"
)

// fieldAliases is the declarative mapping from canonical field to the
// ordered source field names observed across backends (actor results, the
// web API, export enrichment).
var fieldAliases = map[string][]string{
	"handle":          {"username", "userName", "handle"},
	"external_id":     {"id", "pk", "userId", "iguid", "ig_user_id"},
	"full_name":       {"fullName", "full_name"},
	"follower_count":  {"followersCount", "followerCount", "followers", "follower_count", "edge_followed_by"},
	"following_count": {"followsCount", "followingCount", "following", "following_count", "edge_follow"},
	"is_verified":     {"verified", "isVerified", "is_verified"},
	"is_private":      {"private", "isPrivate", "is_private"},
	"is_business":     {"isBusinessAccount", "is_business_account", "is_business"},
	"is_professional": {"isProfessionalAccount", "is_professional_account", "is_professional"},
	"category":        {"businessCategoryName", "category_name", "category"},
	"bio":             {"biography", "bio"},
	"external_url":    {"externalUrl", "external_url"},
	"post_count":      {"postsCount", "mediaCount", "post_count", "edge_owner_to_timeline_media"},
	"profile_pic_url": {"profilePicUrlHD", "profilePicUrl", "profile_pic_url"},
	"follow_date":     {"follow_date", "followDate"},
	"comment_count":   {"commentsCount", "comment_count"},
}

// Normalize maps a raw upstream record to the canonical schema. It is pure
// and never fails; absent fields resolve to defaults.
func Normalize(raw models.RawRecord) models.NormalizedRecord {
	return models.NormalizedRecord{
		Handle:         stringField(raw, "handle"),
		ExternalID:     stringField(raw, "external_id"),
		FullName:       stringField(raw, "full_name"),
		FollowerCount:  intField(raw, "follower_count"),
		FollowingCount: intField(raw, "following_count"),
		IsVerified:     boolField(raw, "is_verified"),
		IsPrivate:      boolField(raw, "is_private"),
		IsBusiness:     boolField(raw, "is_business"),
		IsProfessional: boolField(raw, "is_professional"),
		Category:       stringField(raw, "category"),
		Bio:            FlattenText(stringField(raw, "bio")),
		ExternalURL:    externalURL(raw),
		PostCount:      intField(raw, "post_count"),
		ProfilePicURL:  stringField(raw, "profile_pic_url"),
		FollowDate:     stringField(raw, "follow_date"),
		CommentCount:   intField(raw, "comment_count"),
	}
}

// NormalizeAll maps a slice of raw records, keeping exactly one record per
// distinct handle (first occurrence wins) and dropping records without one.
func NormalizeAll(raws []models.RawRecord) []models.NormalizedRecord {
	seen := make(map[string]struct{}, len(raws))
	out := make([]models.NormalizedRecord, 0, len(raws))
	for _, raw := range raws {
		rec := Normalize(raw)
		if rec.Handle == "" {
			continue
		}
		if _, ok := seen[rec.Handle]; ok {
			continue
		}
		seen[rec.Handle] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// FlattenText applies the one fixed free-text transform: newlines become
// " | " so bios stay on one CSV row.
func FlattenText(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", " | ")
}

func firstValue(raw models.RawRecord, canonical string) (any, bool) {
	for _, alias := range fieldAliases[canonical] {
		if v, ok := raw[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw models.RawRecord, canonical string) string {
	for _, alias := range fieldAliases[canonical] {
		v, ok := raw[alias]
		if !ok || v == nil {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

func intField(raw models.RawRecord, canonical string) int {
	for _, alias := range fieldAliases[canonical] {
		v, ok := raw[alias]
		if !ok || v == nil {
			continue
		}
		if n, ok := asInt(v); ok {
			return n
		}
	}
	return 0
}

func boolField(raw models.RawRecord, canonical string) bool {
	v, ok := firstValue(raw, canonical)
	if !ok {
		return false
	}
	return asBool(v)
}

// externalURL handles the one structural variant: some backends return the
// link as a list of entries, each either a string or a {url: ...} object.
func externalURL(raw models.RawRecord) string {
	if s := stringField(raw, "external_url"); s != "" {
		return s
	}
	urls, ok := raw["externalUrls"].([]any)
	if !ok || len(urls) == 0 {
		return ""
	}
	switch first := urls[0].(type) {
	case string:
		return first
	case map[string]any:
		if u, ok := first["url"].(string); ok {
			return u
		}
	}
	return ""
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	default:
		return ""
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed, true
		}
		return 0, false
	case map[string]any:
		// GraphQL-style {"count": N} wrappers
		if c, ok := n["count"]; ok {
			return asInt(c)
		}
		return 0, false
	default:
		return 0, false
	}
}

// asBool coerces boolean-like source values: native booleans, 0/1 numbers,
// and "true"/"false" strings.
func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes":
			return true
		}
		return false
	default:
		return false
	}
}
