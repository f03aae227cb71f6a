package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"clanhub.gg/clanhub/internal/domain"
)

const discordUserURL = "https://discord.com/api/users/@me"

// discordEndpoint is Discord's OAuth2 authorization and token surface.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// DiscordProfile is the subset of Discord's /users/@me payload the hub
// cares about.
type DiscordProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
}

// DisplayName prefers the global display name over the login username.
func (p DiscordProfile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}

// AvatarURL resolves the CDN avatar, falling back to the default embed
// avatar when none is set.
func (p DiscordProfile) AvatarURL() string {
	if p.Avatar == "" {
		return domain.DefaultAvatarURL
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", p.ID, p.Avatar)
}

// DiscordClient runs the authorization-code flow against Discord.
type DiscordClient struct {
	cfg *oauth2.Config
}

// NewDiscordClient configures the Discord OAuth2 client with the identify
// scope.
func NewDiscordClient(clientID, clientSecret, redirectURL string) *DiscordClient {
	return &DiscordClient{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
	}
}

// AuthURL returns the authorization redirect for the given state.
func (c *DiscordClient) AuthURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and fetches the profile it
// authorizes.
func (c *DiscordClient) Exchange(ctx context.Context, code string) (*DiscordProfile, error) {
	token, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange discord code: %w", err)
	}
	return c.fetchProfile(ctx, token)
}

func (c *DiscordClient) fetchProfile(ctx context.Context, token *oauth2.Token) (*DiscordProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordUserURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch discord profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("discord profile request failed: %s: %s", resp.Status, body)
	}

	var profile DiscordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode discord profile: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("discord profile missing id")
	}
	return &profile, nil
}

// NewState generates an unguessable OAuth state nonce.
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
