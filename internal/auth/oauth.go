package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ProviderGoogle is the only provider currently wired.
const ProviderGoogle = "google"

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth performs the browser-redirect code exchange against Google
// and fetches the user profile. The auth service only ever sees the
// resulting OAuthProfile.
type GoogleOAuth struct {
	config *oauth2.Config
}

// NewGoogleOAuth constructs the Google exchanger.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthCodeURL builds the consent-screen redirect target.
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the callback code for tokens and fetches the profile.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*OAuthProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: oauth exchange: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: fetch userinfo: status %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decode userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("auth: no email provided by google")
	}

	return &OAuthProfile{
		Provider:       ProviderGoogle,
		ProviderUserID: info.ID,
		Email:          info.Email,
		Name:           info.Name,
		AvatarURL:      info.Picture,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
	}, nil
}
