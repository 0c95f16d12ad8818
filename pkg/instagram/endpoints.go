package instagram

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for the web API
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint resolves a handle to its full profile document
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// FollowersEndpoint pages through a user's followers by numeric id
	FollowersEndpoint = "/api/v1/friendships/%s/followers/"
)

// GetProfileURL constructs the URL for resolving a user's profile
func GetProfileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", baseURL, ProfileEndpoint, params.Encode())
}

// GetFollowersURL constructs one page of the follower listing. maxID is the
// opaque cursor from the previous page; empty for the first page.
func GetFollowersURL(baseURL, userID string, count int, maxID string) string {
	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", count))
	if maxID != "" {
		params.Set("max_id", maxID)
	}

	return fmt.Sprintf("%s%s?%s", baseURL, fmt.Sprintf(FollowersEndpoint, userID), params.Encode())
}

// GetUserProfileURL constructs the public profile URL for a handle
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks a handle against the platform's character rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	if username[0] == '@' {
		username = username[1:]
	}

	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}
