// Package policy holds the pure authorization predicates for the clan hub.
//
// Every predicate takes the caller as an Actor and decides from role rank,
// ownership, and identity alone. No I/O happens here; callers resolve the
// actor and any target records first. The developer escape hatch is a
// distinct capability checked before rank comparison — it bypasses the
// order rather than sitting above it.
package policy

import "clanhub.gg/clanhub/internal/domain"

// Actor is a resolved caller identity.
type Actor struct {
	// UserID is the internal document id of the caller's profile.
	UserID string
	// DiscordID is the caller's external identity.
	DiscordID string
	Role      domain.Role
	// Developer is set when DiscordID matches the configured developer
	// identity. It short-circuits every rank check.
	Developer bool
}

// ResolveActor builds an Actor from a stored profile. A nil user yields
// the lowest role.
func ResolveActor(user *domain.User, developerDiscordID string) Actor {
	a := Actor{Role: domain.RoleUser}
	if user != nil {
		a.UserID = user.ID
		a.DiscordID = user.DiscordID
		a.Role = user.Role
		if !a.Role.Valid() {
			a.Role = domain.RoleUser
		}
	}
	a.Developer = developerDiscordID != "" && a.DiscordID == developerDiscordID
	return a
}

// CanEditClan reports whether the actor may mutate general clan fields:
// clan owners, moderators and above, or the developer.
func CanEditClan(actor Actor, clan *domain.Clan) bool {
	if actor.Developer {
		return true
	}
	if clan.HasOwner(actor.UserID) || clan.IsLeadCreator(actor.UserID) {
		return true
	}
	return actor.Role.AtLeast(domain.RoleModerator)
}

// CanRemoveOwners is stricter than CanEditClan: moderator rank alone is
// not enough when the caller is merely one of the clan's owners — a plain
// owner may only strip other owners as the lead creator.
func CanRemoveOwners(actor Actor, clan *domain.Clan) bool {
	if actor.Developer {
		return true
	}
	if !actor.Role.AtLeast(domain.RoleModerator) {
		return false
	}
	if clan.HasOwner(actor.UserID) && !clan.IsLeadCreator(actor.UserID) {
		return false
	}
	return true
}

// CanDeleteClan gates clan deletion to the lead creator, moderators and
// above, or the developer.
func CanDeleteClan(actor Actor, clan *domain.Clan) bool {
	if actor.Developer {
		return true
	}
	return clan.IsLeadCreator(actor.UserID) || actor.Role.AtLeast(domain.RoleModerator)
}

// CanTransferOwnership gates lead-creator reassignment.
func CanTransferOwnership(actor Actor, clan *domain.Clan) bool {
	if actor.Developer {
		return true
	}
	return clan.IsLeadCreator(actor.UserID) || actor.Role.AtLeast(domain.RoleModerator)
}

// CanChangeRole reports whether the actor may assign newRole to anyone.
// Moderator rank is required and the actor can never hand out a role above
// their own.
func CanChangeRole(actor Actor, newRole domain.Role) bool {
	if actor.Developer {
		return true
	}
	if !actor.Role.AtLeast(domain.RoleModerator) {
		return false
	}
	return actor.Role.Rank() >= newRole.Rank()
}

// CanEditUser reports whether the actor may mutate the target's profile.
// Self-edits are always allowed; cross-user edits require moderator rank
// and pass the checkmate guard: a target of strictly greater rank is
// untouchable, and so is an equal-rank target who is not the actor. The
// equal-rank rule is what stops two moderators (or two admins) from
// stripping each other.
func CanEditUser(actor Actor, target *domain.User) bool {
	if actor.UserID == target.ID {
		return true
	}
	if actor.Developer {
		return true
	}
	if !actor.Role.AtLeast(domain.RoleModerator) {
		return false
	}
	if target.Role.Rank() >= actor.Role.Rank() {
		return false
	}
	return true
}

// CanDeleteUser mirrors CanEditUser: self-deletion is permitted,
// cross-user deletion follows the checkmate guard.
func CanDeleteUser(actor Actor, target *domain.User) bool {
	return CanEditUser(actor, target)
}

// CanBanUser gates ban and unban. Self-ban is denied for everyone, the
// developer included; otherwise the cross-user checkmate rules apply.
func CanBanUser(actor Actor, target *domain.User) bool {
	if actor.UserID == target.ID || actor.DiscordID == target.DiscordID {
		return false
	}
	if actor.Developer {
		return true
	}
	if !actor.Role.AtLeast(domain.RoleModerator) {
		return false
	}
	return target.Role.Rank() < actor.Role.Rank()
}

// CanChangeApplicationStatus gates administrative federation transitions.
func CanChangeApplicationStatus(actor Actor) bool {
	return actor.Developer || actor.Role.AtLeast(domain.RoleAdmin)
}
