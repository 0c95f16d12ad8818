package models

import "time"

// RawRecord is one upstream result item in source-specific shape. Field
// names and presence vary by backend; records are immutable once received.
type RawRecord map[string]any

// String returns the value for the first of the given keys that holds a
// non-empty string. Missing keys resolve to "".
func (r RawRecord) String(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// NormalizedRecord is the canonical profile schema shared by every
// collection strategy. Missing numeric fields default to 0, missing string
// fields to "".
type NormalizedRecord struct {
	Handle         string `json:"handle" yaml:"handle"`
	ExternalID     string `json:"ig_user_id" yaml:"ig_user_id"`
	FullName       string `json:"full_name" yaml:"full_name"`
	FollowerCount  int    `json:"follower_count" yaml:"follower_count"`
	FollowingCount int    `json:"following_count" yaml:"following_count"`
	IsVerified     bool   `json:"is_verified" yaml:"is_verified"`
	IsPrivate      bool   `json:"is_private" yaml:"is_private"`
	IsBusiness     bool   `json:"is_business" yaml:"is_business"`
	IsProfessional bool   `json:"is_professional" yaml:"is_professional"`
	Category       string `json:"category" yaml:"category"`
	Bio            string `json:"bio" yaml:"bio"`
	ExternalURL    string `json:"external_url" yaml:"external_url"`
	PostCount      int    `json:"post_count" yaml:"post_count"`
	ProfilePicURL  string `json:"profile_pic_url" yaml:"profile_pic_url"`
	FollowDate     string `json:"follow_date,omitempty" yaml:"follow_date,omitempty"`
	CommentCount   int    `json:"comment_count,omitempty" yaml:"comment_count,omitempty"`
}

// FollowerEntry is one parsed follower relationship: the handle plus the
// follow date when the source carries one (official export, web API).
type FollowerEntry struct {
	Handle     string `json:"handle"`
	FollowDate string `json:"follow_date,omitempty"` // YYYY-MM-DD, UTC
	ProfileURL string `json:"profile_url,omitempty"`
}

// Comment is one normalized comment record keyed by the post it belongs to.
type Comment struct {
	PostURL       string `json:"post_url"`
	OwnerUsername string `json:"owner_username"`
	Text          string `json:"text"`
	LikeCount     int    `json:"like_count"`
}

// RunStatus is the state of one remote collection run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusTimedOut  RunStatus = "timed_out"
)

// Terminal reports whether the status is one from which no further
// transition happens.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	}
	return false
}

// CollectionRun is the ledger view of one batch submission: created on
// submission, updated when the run reaches a terminal state.
type CollectionRun struct {
	ID           string    `json:"id"`
	Command      string    `json:"command"`
	Target       string    `json:"target"`
	Backend      string    `json:"backend"`
	Status       string    `json:"status"`
	UnitsTotal   int       `json:"units_total"`
	UnitsDone    int       `json:"units_done"`
	Records      int       `json:"records"`
	UnitErrors   int       `json:"unit_errors"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ErrorMessage string    `json:"error_message,omitempty"`
}
