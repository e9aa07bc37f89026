package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultAuthURL  = "https://id.twitch.tv/oauth2/authorize"
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultUsersURL = "https://api.twitch.tv/helix/users"
	oauthScopes     = "chat:read chat:edit channel:moderate"
	httpCallTimeout = 10 * time.Second
)

// OAuthClient handles the Twitch authorization-code flow.
type OAuthClient interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (AuthState, error)
}

// HTTPOAuthClient is the production implementation using the Twitch
// identity and Helix HTTP APIs.
type HTTPOAuthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	clock        clockwork.Clock

	authURL  string
	tokenURL string
	usersURL string
}

func NewOAuthClient(clientID, clientSecret, redirectURI string, clock clockwork.Clock) *HTTPOAuthClient {
	return &HTTPOAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		clock:        clock,
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		usersURL:     defaultUsersURL,
	}
}

// AuthURL builds the authorization URL the client opens in a browser.
func (c *HTTPOAuthClient) AuthURL(state string) string {
	return fmt.Sprintf(
		"%s?client_id=%s&redirect_uri=%s&response_type=code&scope=%s&state=%s",
		c.authURL,
		url.QueryEscape(c.clientID),
		url.QueryEscape(c.redirectURI),
		url.QueryEscape(oauthScopes),
		url.QueryEscape(state),
	)
}

// ExchangeCode trades an authorization code for a token and resolves the
// authenticated user.
func (c *HTTPOAuthClient) ExchangeCode(ctx context.Context, code string) (AuthState, error) {
	accessToken, expiresIn, err := c.exchangeCode(ctx, code)
	if err != nil {
		return AuthState{}, fmt.Errorf("token exchange failed: %w", err)
	}

	username, login, err := c.fetchTwitchUser(ctx, accessToken)
	if err != nil {
		return AuthState{}, fmt.Errorf("user info fetch failed: %w", err)
	}

	return AuthState{
		IsAuthenticated: true,
		Username:        username,
		AccessToken:     accessToken,
		Channel:         login,
		ExpiresAt:       c.clock.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

func (c *HTTPOAuthClient) exchangeCode(ctx context.Context, code string) (string, int, error) {
	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", c.redirectURI)

	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: httpCallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("twitch returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}

	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}

func (c *HTTPOAuthClient) fetchTwitchUser(ctx context.Context, accessToken string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.usersURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.clientID)

	client := &http.Client{Timeout: httpCallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to execute user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("twitch user API returned status %d", resp.StatusCode)
	}

	var userResp struct {
		Data []struct {
			ID          string `json:"id"`
			Login       string `json:"login"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return "", "", fmt.Errorf("failed to decode user response: %w", err)
	}

	if len(userResp.Data) == 0 {
		return "", "", fmt.Errorf("no user data returned")
	}

	username := userResp.Data[0].DisplayName
	if username == "" {
		username = userResp.Data[0].Login
	}

	return username, userResp.Data[0].Login, nil
}
