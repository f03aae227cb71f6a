package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"clanhub.gg/clanhub/internal/auth"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
)

const stateCookie = "oauth_state"

// Login handles GET /login: issues a state nonce and redirects to Discord.
func (s *Server) Login(c *gin.Context) {
	state, err := auth.NewState()
	if err != nil {
		c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "login unavailable", http.StatusInternalServerError))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, s.discord.AuthURL(state))
}

// DiscordCallback handles GET /auth/discord/callback: verifies the state,
// exchanges the code, upserts the profile, and issues a session token.
func (s *Server) DiscordCallback(c *gin.Context) {
	state := c.Query("state")
	expected, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != expected {
		c.Error(apperrors.Unauthorized(apperrors.CodeAuthFailed, "oauth state mismatch"))
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.Error(apperrors.BadRequest(apperrors.CodeAuthFailed, "missing authorization code"))
		return
	}

	profile, err := s.discord.Exchange(c.Request.Context(), code)
	if err != nil {
		c.Error(apperrors.Wrap(err, apperrors.CodeAuthFailed, "discord login failed", http.StatusUnauthorized))
		return
	}

	user, err := s.users.LoginUpsert(c.Request.Context(), profile.ID, profile.DisplayName(), profile.AvatarURL())
	if err != nil {
		c.Error(err)
		return
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "session issue failed", http.StatusInternalServerError))
		return
	}

	if s.loginRedirectURL != "" {
		target, perr := url.Parse(s.loginRedirectURL)
		if perr == nil {
			q := target.Query()
			q.Set("token", token)
			target.RawQuery = q.Encode()
			c.Redirect(http.StatusTemporaryRedirect, target.String())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"user":       user,
	})
}

// Logout handles GET /logout. Sessions are stateless JWTs; the endpoint
// clears the state cookie and tells the client to drop its token.
func (s *Server) Logout(c *gin.Context) {
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
