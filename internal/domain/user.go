package domain

import "regexp"

// DefaultAvatarURL is applied when Discord does not supply an avatar.
const DefaultAvatarURL = "https://cdn.discordapp.com/embed/avatars/0.png"

// MaxSocialLinks caps the socials set on both users and clans.
const MaxSocialLinks = 10

// SocialLink is an embedded social-media reference, unique by platform
// within its owning document.
type SocialLink struct {
	Platform    string `bson:"platform" json:"platform"`
	ProfileLink string `bson:"platform_profile_link" json:"platform_profile_link"`
	Logo        string `bson:"platform_logo" json:"platform_logo"`
	Public      bool   `bson:"public" json:"public"`
}

// User is a registered hub profile, keyed internally by document id and
// externally by the immutable Discord snowflake.
type User struct {
	ID          string       `bson:"_id,omitempty" json:"id"`
	DiscordID   string       `bson:"discord_id" json:"discord_id"`
	Username    string       `bson:"username" json:"username"`
	Role        Role         `bson:"role" json:"role"`
	Banned      bool         `bson:"banned" json:"banned"`
	Avatar      string       `bson:"avatar" json:"avatar"`
	Bio         string       `bson:"bio" json:"bio"`
	Socials     []SocialLink `bson:"socials" json:"socials"`
	JoinedClans []string     `bson:"joined_clans" json:"joined_clans"`
	CreatedAt   int64        `bson:"created_at" json:"created_at"`
}

// PublicSocials returns only the links the user has flagged public.
func (u *User) PublicSocials() []SocialLink {
	out := make([]SocialLink, 0, len(u.Socials))
	for _, s := range u.Socials {
		if s.Public {
			out = append(out, s)
		}
	}
	return out
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ValidID reports whether s is a well-formed document id. Kept here so
// handlers and services can reject malformed ids without touching the
// storage driver.
func ValidID(s string) bool {
	return objectIDPattern.MatchString(s)
}
