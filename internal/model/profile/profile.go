package profile

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxOnlineIDLength is the longest online ID PSN hands out.
const MaxOnlineIDLength = 16

// NoRecentGames is the sentinel shown when the play history is empty.
const NoRecentGames = "No games played recently"

// TrophyCounts holds the per-tier earned trophy counts.
type TrophyCounts struct {
	Platinum int `json:"platinum"`
	Gold     int `json:"gold"`
	Silver   int `json:"silver"`
	Bronze   int `json:"bronze"`
}

// Total sums the four tiers.
func (c TrophyCounts) Total() int {
	return c.Platinum + c.Gold + c.Silver + c.Bronze
}

// Snapshot is the merged profile document returned to the frontend. It is
// derived per request from three upstream responses and never persisted.
type Snapshot struct {
	AccountID               string       `json:"accountId"`
	OnlineID                string       `json:"onlineId"`
	AvatarURL               string       `json:"avatarUrl"`
	IsPlusMember            bool         `json:"isPlusMember"`
	Level                   int          `json:"level"`
	LevelProgressPercent    int          `json:"levelProgressPercent"`
	TrophyCounts            TrophyCounts `json:"trophyCounts"`
	TotalTrophies           int          `json:"totalTrophies"`
	LastPlayedTitle         string       `json:"lastPlayedTitle"`
	LastPlayedCoverImageURL string       `json:"lastPlayedCoverImageUrl"`
	RecentTitleLogoURLs     []string     `json:"recentTitleLogoUrls"`
}

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = errors.New("username must be 16 characters or fewer")
	ErrUsernameSpaces   = errors.New("username must not contain spaces")
)

// ValidateOnlineID enforces the PSN username constraints before any upstream
// call is issued: non-empty, at most 16 characters, no whitespace.
func ValidateOnlineID(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if utf8.RuneCountInString(username) > MaxOnlineIDLength {
		return ErrUsernameTooLong
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrUsernameSpaces
	}
	return nil
}
