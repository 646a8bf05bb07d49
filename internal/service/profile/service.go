package profile

import (
	"context"
	"log"
	"math/rand"
	"strings"

	model "github.com/Urbandonment/trophy-forge/internal/model/profile"
	sessionmodel "github.com/Urbandonment/trophy-forge/internal/model/session"
	"github.com/Urbandonment/trophy-forge/internal/psn"
)

// maxRecentLogos caps how many play-history logos end up on the card.
const maxRecentLogos = 8

// Upstream is the slice of the PSN client the aggregator needs.
type Upstream interface {
	UniversalSearch(ctx context.Context, accessToken, username string) (psn.SearchResponse, error)
	GetProfile(ctx context.Context, accessToken, username string) (psn.ProfileResponse, error)
	GetUserTitles(ctx context.Context, accessToken, accountID string) (psn.TitlesResponse, error)
}

// Sessions yields a valid upstream session.
type Sessions interface {
	Ensure(ctx context.Context) (sessionmodel.Session, error)
}

// Service merges three upstream calls into one ProfileSnapshot per request.
type Service struct {
	upstream Upstream
	sessions Sessions
	// reservedUsername maps to the token holder's own account id ("me")
	// instead of the searched one.
	reservedUsername   string
	defaultBackgrounds []string
	// pick selects a default background index; injectable for tests.
	pick func(n int) int
}

// NewService builds the profile aggregator.
func NewService(upstream Upstream, sessions Sessions, reservedUsername string, defaultBackgrounds []string) *Service {
	return &Service{
		upstream:           upstream,
		sessions:           sessions,
		reservedUsername:   strings.ToLower(strings.TrimSpace(reservedUsername)),
		defaultBackgrounds: defaultBackgrounds,
		pick:               rand.Intn,
	}
}

// Fetch resolves a username into a merged profile snapshot. Every failure it
// returns is classified (psn.OutcomeOf) for the HTTP layer.
func (s *Service) Fetch(ctx context.Context, username string) (model.Snapshot, error) {
	sess, err := s.sessions.Ensure(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	search, err := s.upstream.UniversalSearch(ctx, sess.AccessToken, username)
	if err != nil {
		return model.Snapshot{}, err
	}

	match, ok := search.First()
	if !ok {
		return model.Snapshot{}, psn.NotFoundf("PSN profile '%s' not found.", username)
	}

	accountID := match.AccountID
	if s.reservedUsername != "" && strings.EqualFold(username, s.reservedUsername) {
		accountID = "me"
	}

	upstreamProfile, err := s.upstream.GetProfile(ctx, sess.AccessToken, username)
	if err != nil {
		return model.Snapshot{}, err
	}

	history, err := s.upstream.GetUserTitles(ctx, sess.AccessToken, accountID)
	if err != nil {
		return model.Snapshot{}, err
	}

	return s.merge(username, accountID, upstreamProfile.Profile, history), nil
}

func (s *Service) merge(username, accountID string, p psn.Profile, history psn.TitlesResponse) model.Snapshot {
	snapshot := model.Snapshot{
		AccountID:            accountID,
		OnlineID:             p.OnlineID,
		IsPlusMember:         p.Plus != 0,
		Level:                p.TrophySummary.Level,
		LevelProgressPercent: p.TrophySummary.Progress,
		TrophyCounts: model.TrophyCounts{
			Platinum: p.TrophySummary.EarnedTrophies.Platinum,
			Gold:     p.TrophySummary.EarnedTrophies.Gold,
			Silver:   p.TrophySummary.EarnedTrophies.Silver,
			Bronze:   p.TrophySummary.EarnedTrophies.Bronze,
		},
		LastPlayedTitle:     model.NoRecentGames,
		RecentTitleLogoURLs: []string{},
	}
	snapshot.TotalTrophies = snapshot.TrophyCounts.Total()

	if len(p.AvatarURLs) > 0 {
		snapshot.AvatarURL = p.AvatarURLs[0].AvatarURL
	}

	titles := history.Titles
	if len(titles) > 0 {
		snapshot.LastPlayedTitle = titles[0].Name
		snapshot.LastPlayedCoverImageURL = coverArtURL(titles[0])
	}
	for i, title := range titles {
		if i == maxRecentLogos {
			break
		}
		if title.ImageURL != "" {
			snapshot.RecentTitleLogoURLs = append(snapshot.RecentTitleLogoURLs, title.ImageURL)
		}
	}

	if snapshot.LastPlayedCoverImageURL == "" && len(s.defaultBackgrounds) > 0 {
		snapshot.LastPlayedCoverImageURL = s.defaultBackgrounds[s.pick(len(s.defaultBackgrounds))]
		log.Printf("[profile] no cover art for %s, using a default background", username)
	}

	return snapshot
}

// coverArtURL scans a title's media list for the cover-art classification.
func coverArtURL(title psn.Title) string {
	for _, img := range title.Media.Images {
		if img.Format == psn.CoverArtFormat {
			return img.URL
		}
	}
	return ""
}
