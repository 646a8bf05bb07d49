package session

import "time"

// Session is the cached PSN credential pair used to authorize upstream calls.
// A single instance lives for the process lifetime and is replaced in place
// whenever the access token is refreshed.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Valid reports whether the access token is still usable at the given instant.
func (s Session) Valid(now time.Time) bool {
	return s.AccessToken != "" && now.Before(s.ExpiresAt)
}
