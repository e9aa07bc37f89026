package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	client := NewOAuthClient("client123", "secret", "http://localhost:8080/callback", clockwork.NewFakeClock())

	raw := client.AuthURL("state-abc")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "id.twitch.tv", parsed.Host)
	assert.Equal(t, "/oauth2/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "client123", query.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "chat:read chat:edit channel:moderate", query.Get("scope"))
	assert.Equal(t, "state-abc", query.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client123", r.PostFormValue("client_id"))
		assert.Equal(t, "secret", r.PostFormValue("client_secret"))
		assert.Equal(t, "authcode", r.PostFormValue("code"))
		assert.Equal(t, "authorization_code", r.PostFormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-xyz","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	usersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-xyz", r.Header.Get("Authorization"))
		assert.Equal(t, "client123", r.Header.Get("Client-Id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"1","login":"streamer","display_name":"Streamer"}]}`))
	}))
	defer usersServer.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	client := NewOAuthClient("client123", "secret", "http://localhost:8080/callback", clock)
	client.tokenURL = tokenServer.URL
	client.usersURL = usersServer.URL

	state, err := client.ExchangeCode(context.Background(), "authcode")
	require.NoError(t, err)

	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "Streamer", state.Username)
	assert.Equal(t, "token-xyz", state.AccessToken)
	assert.Equal(t, "streamer", state.Channel)
	assert.Equal(t, time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC), state.ExpiresAt)
}

func TestExchangeCode_FallsBackToLogin(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"token-xyz","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	usersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"1","login":"streamer","display_name":""}]}`))
	}))
	defer usersServer.Close()

	client := NewOAuthClient("client123", "secret", "http://localhost:8080/callback", clockwork.NewFakeClock())
	client.tokenURL = tokenServer.URL
	client.usersURL = usersServer.URL

	state, err := client.ExchangeCode(context.Background(), "authcode")
	require.NoError(t, err)
	assert.Equal(t, "streamer", state.Username)
}

func TestExchangeCode_TokenEndpointRejects(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid code"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	client := NewOAuthClient("client123", "secret", "http://localhost:8080/callback", clockwork.NewFakeClock())
	client.tokenURL = tokenServer.URL

	_, err := client.ExchangeCode(context.Background(), "badcode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token exchange failed")
}

func TestExchangeCode_EmptyUserData(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"token-xyz","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	usersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer usersServer.Close()

	client := NewOAuthClient("client123", "secret", "http://localhost:8080/callback", clockwork.NewFakeClock())
	client.tokenURL = tokenServer.URL
	client.usersURL = usersServer.URL

	_, err := client.ExchangeCode(context.Background(), "authcode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user info fetch failed")
}
