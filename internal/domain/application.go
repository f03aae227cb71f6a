package domain

// MembershipCooldownSeconds is the re-application wait after a rejected
// membership application (7 days).
const MembershipCooldownSeconds = 7 * 24 * 60 * 60

// MaxPendingFederationApplications bounds how many unresolved federation
// applications one submitter may hold across all clans.
const MaxPendingFederationApplications = 3

// FederationStatus is the state of a clan's application for platform-wide
// approved status.
type FederationStatus string

const (
	FederationApplied  FederationStatus = "applied"
	FederationInReview FederationStatus = "in_review"
	FederationAccepted FederationStatus = "accepted"
	FederationDenied   FederationStatus = "denied"
	FederationDeleted  FederationStatus = "deleted"
)

// ValidFederationTarget reports whether s is a status an admin may set.
// "applied" is only ever set at creation.
func ValidFederationTarget(s FederationStatus) bool {
	switch s {
	case FederationInReview, FederationAccepted, FederationDenied, FederationDeleted:
		return true
	}
	return false
}

// Pending reports whether the application still counts against the
// submitter's pending quota.
func (s FederationStatus) Pending() bool {
	return s == FederationApplied || s == FederationInReview
}

// FederationApplication is a clan's request for the approved flag.
// References clan and submitter by id only; deleting either does not
// cascade here.
type FederationApplication struct {
	ID          string           `bson:"_id,omitempty" json:"id"`
	ClanID      string           `bson:"clan_id" json:"clan_id"`
	SubmittedBy string           `bson:"submitted_by" json:"submitted_by"`
	Status      FederationStatus `bson:"status" json:"status"`
	CreatedAt   int64            `bson:"created_at" json:"created_at"`
}

// MembershipStatus is the state of a user's request to join a clan.
type MembershipStatus string

const (
	MembershipApplied  MembershipStatus = "applied"
	MembershipAccepted MembershipStatus = "accepted"
	MembershipRejected MembershipStatus = "rejected"
	MembershipDeleted  MembershipStatus = "deleted"
)

// ValidMembershipTarget reports whether s is a status a clan owner may set.
func ValidMembershipTarget(s MembershipStatus) bool {
	switch s {
	case MembershipApplied, MembershipAccepted, MembershipRejected, MembershipDeleted:
		return true
	}
	return false
}

// MembershipApplication is a user's request to join a clan. DeniedAt is
// stamped (epoch seconds) on rejection and reset to zero by any other
// owner decision; a submitter pull keeps the stamp, so withdrawing a
// rejected application does not shortcut the re-application cooldown.
type MembershipApplication struct {
	ID          string           `bson:"_id,omitempty" json:"id"`
	ClanID      string           `bson:"clan_id" json:"clan_id"`
	SubmittedBy string           `bson:"submitted_by" json:"submitted_by"`
	Status      MembershipStatus `bson:"status" json:"status"`
	DeniedAt    int64            `bson:"denied_at" json:"denied_at"`
	CreatedAt   int64            `bson:"created_at" json:"created_at"`
}

// InCooldown reports whether the rejection wait still blocks at the given
// time. Driven by the stamp alone, so a rejected-then-pulled application
// keeps blocking; the window is inclusive at exactly seven days.
func (a *MembershipApplication) InCooldown(now int64) bool {
	if a.DeniedAt == 0 {
		return false
	}
	return now-a.DeniedAt <= MembershipCooldownSeconds
}

// CooldownRemaining returns how many seconds of the rejection cooldown are
// left at the given time, or zero when no cooldown applies.
func (a *MembershipApplication) CooldownRemaining(now int64) int64 {
	if !a.InCooldown(now) {
		return 0
	}
	return MembershipCooldownSeconds - (now - a.DeniedAt)
}
