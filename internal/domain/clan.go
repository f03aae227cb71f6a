package domain

import (
	"slices"
	"strings"
)

// Clan tag length bounds, enforced at create and update.
const (
	MinTagLength = 2
	MaxTagLength = 6
)

// MaxClansPerCreator bounds how many clans a single user may register.
const MaxClansPerCreator = 3

// CategoryEverything is the sentinel category applied whenever the
// categories set would otherwise be empty.
const CategoryEverything = "everything"

// Categories a clan may list itself under.
var ClanCategories = []string{"acc", "speed", "challenge", "ranked", "fun", "tech", CategoryEverything}

// ValidCategory reports whether c (case-insensitive) is a known category.
func ValidCategory(c string) bool {
	return slices.Contains(ClanCategories, strings.ToLower(c))
}

// Clan is the clan aggregate. Owners is always a subset of Members and is
// never empty; CreatedBy is the lead creator, distinct from the owners set
// and reassigned only by ownership transfer.
type Clan struct {
	ID              string       `bson:"_id,omitempty" json:"id"`
	Name            string       `bson:"name" json:"name"`
	Tag             string       `bson:"tag" json:"tag"`
	Description     string       `bson:"description" json:"description"`
	Logo            string       `bson:"logo" json:"logo"`
	Owners          []string     `bson:"owners" json:"owners"`
	Members         []string     `bson:"members" json:"members"`
	Socials         []SocialLink `bson:"socials" json:"socials"`
	Categories      []string     `bson:"categories" json:"categories"`
	MemberCount     int          `bson:"member_count" json:"member_count"`
	PositiveRatings []string     `bson:"positive_ratings" json:"positive_ratings"`
	NegativeRatings []string     `bson:"negative_ratings" json:"negative_ratings"`
	Approved        bool         `bson:"approved" json:"approved"`
	CreatedBy       string       `bson:"created_by" json:"created_by"`
	EditedAt        int64        `bson:"edited_at" json:"edited_at"`
	CreatedAt       int64        `bson:"created_at" json:"created_at"`
}

// HasOwner reports whether userID is in the owners set.
func (c *Clan) HasOwner(userID string) bool {
	return slices.Contains(c.Owners, userID)
}

// HasMember reports whether userID is in the members set.
func (c *Clan) HasMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

// IsLeadCreator reports whether userID is the clan's lead creator.
func (c *Clan) IsLeadCreator(userID string) bool {
	return c.CreatedBy == userID
}

// RatingDirection selects the positive or negative rating set.
type RatingDirection string

const (
	RatingUp   RatingDirection = "up"
	RatingDown RatingDirection = "down"
)
