// Package domain defines the core entities of the clan hub: users, clans,
// and the two application aggregates (federation and membership).
package domain

import "fmt"

// Role is the platform-wide user role. Roles form a strict total order;
// compare with Rank or AtLeast, never by string.
type Role string

const (
	RoleUser                 Role = "user"
	RoleChallengeCurator     Role = "challenge_curator"
	RoleChallengeCuratorLead Role = "challenge_curator_lead"
	RoleModerator            Role = "moderator"
	RoleAdmin                Role = "admin"
)

var roleRanks = map[Role]int{
	RoleUser:                 0,
	RoleChallengeCurator:     1,
	RoleChallengeCuratorLead: 2,
	RoleModerator:            3,
	RoleAdmin:                4,
}

// ParseRole validates a wire-format role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Rank returns the role's position in the total order. Unknown roles rank
// below RoleUser so a corrupt record never gains permissions.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r ranks equal to or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Roles lists all known roles in rank order.
func Roles() []Role {
	return []Role{RoleUser, RoleChallengeCurator, RoleChallengeCuratorLead, RoleModerator, RoleAdmin}
}
