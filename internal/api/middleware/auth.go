package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"clanhub.gg/clanhub/internal/auth"
	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
	"clanhub.gg/clanhub/internal/policy"
	"clanhub.gg/clanhub/internal/repository"
)

const ctxKeyActor = "actor"

// ProfileLoader is the slice of the user store the auth chain needs.
type ProfileLoader interface {
	ByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the Bearer session token, resolves the caller's profile
// into a policy.Actor, and rejects banned callers. A token whose profile no
// longer exists still yields an actor with the lowest role, so the
// developer escape hatch survives profile deletion.
func Auth(tokens *auth.TokenManager, profiles ProfileLoader, developerDiscordID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, tokens)
		if !ok {
			return
		}

		var profile *domain.User
		if claims.UserID != "" {
			loaded, err := profiles.ByID(c.Request.Context(), claims.UserID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    apperrors.CodeInternal,
					"message": "An internal error occurred",
				})
				return
			}
			profile = loaded
		}

		actor := policy.ResolveActor(profile, developerDiscordID)
		if actor.UserID == "" {
			actor.UserID = claims.UserID
		}
		if actor.DiscordID == "" {
			actor.DiscordID = claims.DiscordID
			actor.Developer = developerDiscordID != "" && actor.DiscordID == developerDiscordID
		}

		if profile != nil && profile.Banned && !actor.Developer {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    apperrors.CodeUserBanned,
				"message": "your account is banned",
			})
			return
		}

		c.Set(ctxKeyActor, actor)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, tokens *auth.TokenManager) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    apperrors.CodeAuthFailed,
			"message": "missing authorization header",
		})
		return nil, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    apperrors.CodeAuthFailed,
			"message": "invalid authorization header format",
		})
		return nil, false
	}

	claims, err := tokens.Parse(parts[1])
	if err != nil {
		code := apperrors.CodeTokenInvalid
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = apperrors.CodeTokenExpired
			msg = "token expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    code,
			"message": msg,
		})
		return nil, false
	}
	return claims, true
}

// Actor extracts the resolved caller from the gin context. Routes behind
// Auth always have one; elsewhere the zero actor (lowest role) is returned.
func Actor(c *gin.Context) policy.Actor {
	if v, ok := c.Get(ctxKeyActor); ok {
		if a, ok := v.(policy.Actor); ok {
			return a
		}
	}
	return policy.Actor{Role: domain.RoleUser}
}
