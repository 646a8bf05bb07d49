package psn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthBaseURL = "https://ca.account.sony.com/api/authz/v3/oauth"
	defaultAPIBaseURL  = "https://m.np.playstation.com/api"

	// Mobile app client credentials, pre-encoded for the Basic auth header.
	// These are public knowledge and shared by every third-party PSN client.
	basicAuthCredentials = "MDk1MTUxNTktNzIzNy00MzcwLTliNDAtMzgwNmU2N2MwODkxOnVjUGprYTV0bnRCMktxc1A="

	redirectURI = "com.scee.psxandroid.scecompcall://redirect"
	clientID    = "09515159-7237-4370-9b40-3806e67c0891"
	oauthScope  = "psn:mobile.v2.core psn:clientapp"
)

// Config tunes the client; zero values fall back to the production endpoints.
type Config struct {
	AuthBaseURL string
	APIBaseURL  string
	HTTPClient  *http.Client
}

// Client is the thin call surface to the PSN network API. It performs the
// credential exchanges and the three profile-related calls; every failure it
// returns is already classified (see errors.go).
type Client struct {
	authBase   string
	apiBase    string
	httpClient *http.Client
	// noRedirect captures OAuth authorize redirects instead of following them.
	noRedirect *http.Client
}

// New builds a client from the given config.
func New(cfg Config) *Client {
	authBase := strings.TrimSuffix(cfg.AuthBaseURL, "/")
	if authBase == "" {
		authBase = defaultAuthBaseURL
	}
	apiBase := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		authBase:   authBase,
		apiBase:    apiBase,
		httpClient: httpClient,
		noRedirect: &noRedirect,
	}
}

// ExchangeNpssoForCode trades the operator's long-lived NPSSO credential for a
// short-lived authorization code.
func (c *Client) ExchangeNpssoForCode(ctx context.Context, npsso string) (string, error) {
	query := url.Values{}
	query.Set("access_type", "offline")
	query.Set("client_id", clientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("response_type", "code")
	query.Set("scope", oauthScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authBase+"/authorize?"+query.Encode(), nil)
	if err != nil {
		return "", AuthFailure(err)
	}
	req.Header.Set("Cookie", "npsso="+npsso)

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return "", AuthFailure(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	location := resp.Header.Get("Location")
	if resp.StatusCode < 300 || resp.StatusCode >= 400 || location == "" {
		return "", AuthFailure(fmt.Errorf("authorize endpoint returned status %d without a redirect", resp.StatusCode))
	}

	redirect, err := url.Parse(location)
	if err != nil {
		return "", AuthFailure(fmt.Errorf("malformed authorize redirect: %w", err))
	}
	code := redirect.Query().Get("code")
	if code == "" {
		// The redirect omits the code when the NPSSO token is expired or bogus.
		return "", AuthFailure(fmt.Errorf("authorize redirect carried no access code"))
	}
	return code, nil
}

// ExchangeCodeForTokens trades an authorization code for an access/refresh
// token pair.
func (c *Client) ExchangeCodeForTokens(ctx context.Context, code string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("grant_type", "authorization_code")
	form.Set("token_format", "jwt")
	return c.tokenRequest(ctx, form)
}

// ExchangeRefreshToken trades a refresh token for a fresh token pair.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")
	form.Set("token_format", "jwt")
	form.Set("scope", oauthScope)
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBase+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, AuthFailure(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuthCredentials)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, AuthFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, AuthFailure(fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, readErrorMessage(resp.Body)))
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return TokenResponse{}, AuthFailure(fmt.Errorf("malformed token response: %w", err))
	}
	if tokens.AccessToken == "" {
		return TokenResponse{}, AuthFailure(fmt.Errorf("token response carried no access token"))
	}
	return tokens, nil
}

// UniversalSearch resolves a username to its social metadata.
func (c *Client) UniversalSearch(ctx context.Context, accessToken, username string) (SearchResponse, error) {
	payload := map[string]any{
		"searchTerm":     username,
		"domainRequests": []map[string]string{{"domain": "SocialAllAccounts"}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SearchResponse{}, Classify(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/search/v1/universalSearch", strings.NewReader(string(body)))
	if err != nil {
		return SearchResponse{}, Classify(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var result SearchResponse
	if err := c.doJSON(req, &result); err != nil {
		return SearchResponse{}, err
	}
	return result, nil
}

// GetProfile fetches the profile document for a username.
func (c *Client) GetProfile(ctx context.Context, accessToken, username string) (ProfileResponse, error) {
	endpoint := fmt.Sprintf("%s/userProfile/v1/users/%s/profile2", c.apiBase, url.PathEscape(username))
	query := url.Values{}
	query.Set("fields", "accountId,onlineId,avatarUrls,plus,trophySummary(@default,level,progress,earnedTrophies)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return ProfileResponse{}, Classify(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var result ProfileResponse
	if err := c.doJSON(req, &result); err != nil {
		return ProfileResponse{}, err
	}
	return result, nil
}

// GetUserTitles fetches the recent play history for an account id. The
// special account id "me" resolves to the token holder's own history.
func (c *Client) GetUserTitles(ctx context.Context, accessToken, accountID string) (TitlesResponse, error) {
	endpoint := fmt.Sprintf("%s/gamelist/v2/users/%s/titles", c.apiBase, url.PathEscape(accountID))
	query := url.Values{}
	query.Set("categories", "ps4_game,ps5_native_game")
	query.Set("limit", "20")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return TitlesResponse{}, Classify(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var result TitlesResponse
	if err := c.doJSON(req, &result); err != nil {
		return TitlesResponse{}, err
	}
	return result, nil
}

// doJSON executes a request and decodes a JSON body, classifying every
// failure mode on the way out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body)
		if msg == "" {
			msg = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
		}
		return Classify(fmt.Errorf("%s", msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Classify(fmt.Errorf("malformed upstream response: %w", err))
	}
	return nil
}

// readErrorMessage pulls the message out of an upstream error envelope,
// falling back to the raw body text.
func readErrorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}
