package spotify

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const apiBaseURL = "https://api.spotify.com/v1"

var scopes = []string{
	"user-read-email",
	"user-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
}

// Client holds the application's OAuth configuration. User-scoped API
// calls go through a Session bound to that user's tokens.
type Client struct {
	oauth   *oauth2.Config
	baseURL string
}

func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.spotify.com/authorize",
				TokenURL: "https://accounts.spotify.com/api/token",
			},
		},
		baseURL: apiBaseURL,
	}
}

// AuthURL builds the authorization redirect for the given anti-CSRF state.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.oauth.Exchange(ctx, code)
}

// Session is a user-scoped API handle. The underlying token source
// refreshes the access token transparently; call Token afterwards to
// persist any rotation.
type Session struct {
	baseURL    string
	source     oauth2.TokenSource
	httpClient *http.Client
}

// Session binds the client to a user's stored tokens.
func (c *Client) Session(ctx context.Context, accessToken, refreshToken string, expiry time.Time) *Session {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       expiry,
	}
	source := oauth2.ReuseTokenSource(token, c.oauth.TokenSource(ctx, token))
	return &Session{
		baseURL:    c.baseURL,
		source:     source,
		httpClient: oauth2.NewClient(ctx, source),
	}
}

// SessionFromToken binds a freshly exchanged token, e.g. right after the
// OAuth callback.
func (c *Client) SessionFromToken(ctx context.Context, token *oauth2.Token) *Session {
	source := oauth2.ReuseTokenSource(token, c.oauth.TokenSource(ctx, token))
	return &Session{
		baseURL:    c.baseURL,
		source:     source,
		httpClient: oauth2.NewClient(ctx, source),
	}
}

// Token returns the session's current token so rotated credentials can be
// written back to storage.
func (s *Session) Token() (*oauth2.Token, error) {
	return s.source.Token()
}
