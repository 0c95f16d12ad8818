package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"igcollect/pkg/models"
)

func TestNormalizeActorRecord(t *testing.T) {
	raw := models.RawRecord{
		"username":              "alice",
		"id":                    "12345",
		"fullName":              "Alice A",
		"followersCount":        float64(1500),
		"followsCount":          float64(300),
		"verified":              true,
		"private":               false,
		"isBusinessAccount":     true,
		"isProfessionalAccount": false,
		"businessCategoryName":  "Artist",
		"biography":             "line one\nline two",
		"externalUrls":          []any{map[string]any{"url": "https://alice.example"}},
		"postsCount":            float64(42),
		"profilePicUrlHD":       "https://img.example/hd.jpg",
	}

	rec := Normalize(raw)
	assert.Equal(t, "alice", rec.Handle)
	assert.Equal(t, "12345", rec.ExternalID)
	assert.Equal(t, "Alice A", rec.FullName)
	assert.Equal(t, 1500, rec.FollowerCount)
	assert.Equal(t, 300, rec.FollowingCount)
	assert.True(t, rec.IsVerified)
	assert.False(t, rec.IsPrivate)
	assert.True(t, rec.IsBusiness)
	assert.Equal(t, "Artist", rec.Category)
	assert.Equal(t, "line one | line two", rec.Bio)
	assert.Equal(t, "https://alice.example", rec.ExternalURL)
	assert.Equal(t, 42, rec.PostCount)
	assert.Equal(t, "https://img.example/hd.jpg", rec.ProfilePicURL)
}

func TestNormalizeWebAPIRecord(t *testing.T) {
	raw := models.RawRecord{
		"userName":       "bob",
		"pk":             "999",
		"full_name":      "Bob B",
		"followerCount":  float64(12),
		"followingCount": float64(7),
		"isVerified":     float64(1),
		"is_private":     "true",
		"bio":            "hello",
		"mediaCount":     "88",
		"profilePicUrl":  "https://img.example/sd.jpg",
	}

	rec := Normalize(raw)
	assert.Equal(t, "bob", rec.Handle)
	assert.Equal(t, "999", rec.ExternalID)
	assert.Equal(t, 12, rec.FollowerCount)
	assert.Equal(t, 7, rec.FollowingCount)
	assert.True(t, rec.IsVerified, "0/1 coerces to bool")
	assert.True(t, rec.IsPrivate, `"true" coerces to bool`)
	assert.Equal(t, 88, rec.PostCount, "numeric strings coerce")
	assert.Equal(t, "https://img.example/sd.jpg", rec.ProfilePicURL)
}

// A sparse record must fill every canonical field with a defined default
func TestNormalizeSparseRecordDefaults(t *testing.T) {
	rec := Normalize(models.RawRecord{"userName": "bob", "followers": float64(12)})

	assert.Equal(t, "bob", rec.Handle)
	assert.Equal(t, 12, rec.FollowerCount)
	assert.Equal(t, 0, rec.FollowingCount)
	assert.False(t, rec.IsVerified)
	assert.False(t, rec.IsPrivate)
	assert.Equal(t, "", rec.FullName)
	assert.Equal(t, "", rec.Bio)
	assert.Equal(t, 0, rec.PostCount)
}

func TestNormalizeTotality(t *testing.T) {
	cases := []models.RawRecord{
		{},
		nil,
		{"unrelated": "junk"},
		{"username": nil, "followersCount": nil},
		{"username": 42, "verified": "banana", "followersCount": "not-a-number"},
		{"externalUrls": []any{float64(3)}},
		{"externalUrls": "not-a-list"},
	}

	for i, raw := range cases {
		rec := Normalize(raw)
		assert.Equal(t, 0, rec.FollowerCount, "case %d", i)
		assert.Equal(t, "", rec.Handle, "case %d: junk values resolve to defaults", i)
		assert.False(t, rec.IsVerified, "case %d", i)
	}
}

func TestNormalizeGraphQLCountWrapper(t *testing.T) {
	raw := models.RawRecord{
		"username":         "carol",
		"edge_followed_by": map[string]any{"count": float64(321)},
		"edge_follow":      map[string]any{"count": float64(45)},
	}
	rec := Normalize(raw)
	assert.Equal(t, 321, rec.FollowerCount)
	assert.Equal(t, 45, rec.FollowingCount)
}

func TestNormalizeAllDeduplicatesByHandle(t *testing.T) {
	raws := []models.RawRecord{
		{"username": "alice", "followersCount": float64(1)},
		{"username": "bob"},
		{"userName": "alice", "followersCount": float64(99)},
		{"noHandle": true},
	}

	recs := NormalizeAll(raws)
	assert.Len(t, recs, 2)
	assert.Equal(t, "alice", recs[0].Handle)
	assert.Equal(t, 1, recs[0].FollowerCount, "first occurrence wins")
	assert.Equal(t, "bob", recs[1].Handle)
}

func TestFlattenText(t *testing.T) {
	assert.Equal(t, "a | b", FlattenText("a\nb"))
	assert.Equal(t, "a | b", FlattenText("a\r\nb"))
	assert.Equal(t, "plain", FlattenText("plain"))
	assert.Equal(t, "", FlattenText(""))
}

func TestExternalURLStringList(t *testing.T) {
	rec := Normalize(models.RawRecord{
		"username":     "dan",
		"externalUrls": []any{"https://dan.example"},
	})
	assert.Equal(t, "https://dan.example", rec.ExternalURL)
}

func BenchmarkNormalize(b *testing.B) {
	raw := models.RawRecord{
		"username":       "alice",
		"followersCount": float64(1500),
		"verified":       true,
		"biography":      "line one\nline two",
		"postsCount":     float64(42),
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Normalize(raw)
	}
}
