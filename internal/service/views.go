package service

import (
	"context"

	"clanhub.gg/clanhub/internal/domain"
)

// UserRef is the populated public summary embedded in clan reads in place
// of raw user ids.
type UserRef struct {
	ID        string      `json:"id"`
	DiscordID string      `json:"discord_id"`
	Username  string      `json:"username"`
	Avatar    string      `json:"avatar"`
	Role      domain.Role `json:"role"`
}

func refOf(u domain.User) UserRef {
	return UserRef{
		ID:        u.ID,
		DiscordID: u.DiscordID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Role:      u.Role,
	}
}

// ClanView is a clan read model with user references resolved to profiles.
// Ids that no longer resolve (deleted users) are dropped from the view but
// left untouched in storage.
type ClanView struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Tag             string              `json:"tag"`
	Description     string              `json:"description"`
	Logo            string              `json:"logo"`
	Owners          []UserRef           `json:"owners"`
	Members         []UserRef           `json:"members"`
	Socials         []domain.SocialLink `json:"socials"`
	Categories      []string            `json:"categories"`
	MemberCount     int                 `json:"member_count"`
	PositiveRatings []string            `json:"positive_ratings"`
	NegativeRatings []string            `json:"negative_ratings"`
	Approved        bool                `json:"approved"`
	CreatedBy       *UserRef            `json:"created_by"`
	EditedAt        int64               `json:"edited_at"`
	CreatedAt       int64               `json:"created_at"`
}

// buildClanViews resolves every user id referenced by the given clans in
// one batch read and assembles the populated views.
func buildClanViews(ctx context.Context, users UserStore, clans []domain.Clan) ([]ClanView, error) {
	idSet := make(map[string]struct{})
	for _, c := range clans {
		for _, id := range c.Owners {
			idSet[id] = struct{}{}
		}
		for _, id := range c.Members {
			idSet[id] = struct{}{}
		}
		if c.CreatedBy != "" {
			idSet[c.CreatedBy] = struct{}{}
		}
	}

	byID := make(map[string]domain.User, len(idSet))
	if len(idSet) > 0 {
		ids := make([]string, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		resolved, err := users.ManyByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range resolved {
			byID[u.ID] = u
		}
	}

	refs := func(ids []string) []UserRef {
		out := make([]UserRef, 0, len(ids))
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				out = append(out, refOf(u))
			}
		}
		return out
	}

	views := make([]ClanView, 0, len(clans))
	for _, c := range clans {
		v := ClanView{
			ID:              c.ID,
			Name:            c.Name,
			Tag:             c.Tag,
			Description:     c.Description,
			Logo:            c.Logo,
			Owners:          refs(c.Owners),
			Members:         refs(c.Members),
			Socials:         c.Socials,
			Categories:      c.Categories,
			MemberCount:     c.MemberCount,
			PositiveRatings: c.PositiveRatings,
			NegativeRatings: c.NegativeRatings,
			Approved:        c.Approved,
			EditedAt:        c.EditedAt,
			CreatedAt:       c.CreatedAt,
		}
		if u, ok := byID[c.CreatedBy]; ok {
			ref := refOf(u)
			v.CreatedBy = &ref
		}
		views = append(views, v)
	}
	return views, nil
}

// publicProfile strips private social links for unauthenticated reads.
func publicProfile(u domain.User) domain.User {
	u.Socials = u.PublicSocials()
	return u
}
