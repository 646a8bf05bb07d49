package psn

// TokenResponse is the payload of the OAuth token endpoint for both the
// code and refresh grant types.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// SocialMetadata identifies one account in a universal search result.
type SocialMetadata struct {
	AccountID string `json:"accountId"`
	OnlineID  string `json:"onlineId"`
}

// SearchResult is one hit inside a search domain.
type SearchResult struct {
	SocialMetadata SocialMetadata `json:"socialMetadata"`
}

// DomainResponse groups the hits of one search domain.
type DomainResponse struct {
	Domain  string         `json:"domain"`
	Results []SearchResult `json:"results"`
}

// SearchResponse is the universal search envelope.
type SearchResponse struct {
	DomainResponses []DomainResponse `json:"domainResponses"`
}

// First returns the top social match, if any.
func (r SearchResponse) First() (SocialMetadata, bool) {
	for _, domain := range r.DomainResponses {
		for _, result := range domain.Results {
			if result.SocialMetadata.AccountID != "" {
				return result.SocialMetadata, true
			}
		}
	}
	return SocialMetadata{}, false
}

// AvatarURL is one entry of a profile's avatar list.
type AvatarURL struct {
	Size      string `json:"size"`
	AvatarURL string `json:"avatarUrl"`
}

// EarnedTrophies carries the per-tier counts of a trophy summary.
type EarnedTrophies struct {
	Platinum int `json:"platinum"`
	Gold     int `json:"gold"`
	Silver   int `json:"silver"`
	Bronze   int `json:"bronze"`
}

// TrophySummary is the level/progress/counts block of a profile.
type TrophySummary struct {
	Level          int            `json:"level"`
	Progress       int            `json:"progress"`
	EarnedTrophies EarnedTrophies `json:"earnedTrophies"`
}

// Profile is the upstream profile document.
type Profile struct {
	AccountID     string        `json:"accountId"`
	OnlineID      string        `json:"onlineId"`
	AvatarURLs    []AvatarURL   `json:"avatarUrls"`
	Plus          int           `json:"plus"`
	TrophySummary TrophySummary `json:"trophySummary"`
}

// ProfileResponse wraps the profile document the way the upstream serves it.
type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

// CoverArtFormat is the media image classification preferred as card
// background.
const CoverArtFormat = "GAMEHUB_COVER_ART"

// TitleImage is one classified image in a title's media list.
type TitleImage struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// TitleMedia groups the media images of a title.
type TitleMedia struct {
	Images []TitleImage `json:"images"`
}

// Title is one entry of a play history.
type Title struct {
	TitleID  string     `json:"titleId"`
	Name     string     `json:"name"`
	ImageURL string     `json:"imageUrl"`
	Media    TitleMedia `json:"media"`
}

// TitlesResponse is the play history envelope.
type TitlesResponse struct {
	Titles []Title `json:"titles"`
}
