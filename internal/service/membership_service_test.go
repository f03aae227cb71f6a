package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
)

type membershipFixture struct {
	svc   *MembershipService
	users *fakeUsers
	clans *fakeClans
	apps  *fakeMemberships
	now   int64
}

func newMembershipFixture() *membershipFixture {
	users := newFakeUsers()
	clans := newFakeClans()
	apps := newFakeMemberships()
	clanSvc := NewClanService(clans, users, nil)
	fx := &membershipFixture{
		svc:   NewMembershipService(apps, clans, clanSvc),
		users: users,
		clans: clans,
		apps:  apps,
		now:   1_700_000_000,
	}
	fx.svc.now = func() int64 { return fx.now }
	return fx
}

func (f *membershipFixture) seedClan(owner domain.User, members ...string) domain.Clan {
	return f.clans.add(domain.Clan{
		Name:        "Night Shift",
		Tag:         "NS",
		Owners:      []string{owner.ID},
		Members:     append([]string{owner.ID}, members...),
		MemberCount: 1 + len(members),
		CreatedBy:   owner.ID,
	})
}

func TestMembershipApply(t *testing.T) {
	ctx := context.Background()

	t.Run("member opens an application", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)

		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipApplied, app.Status)
		assert.Zero(t, app.DeniedAt)
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		outsider := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner)

		_, err := fx.svc.Apply(ctx, actorFor(outsider), clan.ID)
		requireCode(t, err, apperrors.CodeNotClanMember)
	})

	t.Run("open or accepted application blocks a new one", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)

		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		requireCode(t, err, apperrors.CodeDuplicateApplication)

		_, err = fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipAccepted)
		require.NoError(t, err)
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		requireCode(t, err, apperrors.CodeDuplicateApplication)
	})

	t.Run("pulled application frees the slot", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)

		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.Pull(ctx, actorFor(member), app.ID)
		require.NoError(t, err)
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
	})

	t.Run("rejection starts the seven day cooldown", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)

		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipRejected)
		require.NoError(t, err)
		rejectedAt := fx.now

		// One hour later the remaining cooldown rides in the params.
		fx.now = rejectedAt + 3600
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.CodeCooldownActive, appErr.Code)
		assert.Equal(t, int64(domain.MembershipCooldownSeconds-3600), appErr.Params["time_remaining_seconds"])

		// The window is inclusive: exactly seven days in still blocks.
		fx.now = rejectedAt + domain.MembershipCooldownSeconds
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		requireCode(t, err, apperrors.CodeCooldownActive)

		fx.now++
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
	})

	t.Run("pulling a rejected application does not reset the cooldown", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)

		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipRejected)
		require.NoError(t, err)
		_, err = fx.svc.Pull(ctx, actorFor(member), app.ID)
		require.NoError(t, err)

		fx.now += 3600
		_, err = fx.svc.Apply(ctx, actorFor(member), clan.ID)
		requireCode(t, err, apperrors.CodeCooldownActive)
	})
}

func TestMembershipChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("only clan owners decide", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)

		_, err = fx.svc.ChangeStatus(ctx, actorFor(member), app.ID, domain.MembershipAccepted)
		requireCode(t, err, apperrors.CodeAccessDenied)

		// Staff rank does not reach into a clan's join decisions.
		mod := seedUser(fx.users, "10000000000000002", domain.RoleModerator)
		_, err = fx.svc.ChangeStatus(ctx, actorFor(mod), app.ID, domain.MembershipAccepted)
		requireCode(t, err, apperrors.CodeAccessDenied)
	})

	t.Run("acceptance joins the submitter and recounts", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)

		got, err := fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipAccepted)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipAccepted, got.Status)
		assert.Zero(t, got.DeniedAt)

		stored, err := fx.clans.ByID(ctx, clan.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasMember(member.ID))
		assert.Equal(t, len(stored.Members), stored.MemberCount)

		u, err := fx.users.ByID(ctx, member.ID)
		require.NoError(t, err)
		assert.Contains(t, u.JoinedClans, clan.ID)
	})

	t.Run("rejection stamps denied_at", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)

		got, err := fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipRejected)
		require.NoError(t, err)
		assert.Equal(t, fx.now, got.DeniedAt)

		// Re-opening the decision clears the stamp.
		got, err = fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipApplied)
		require.NoError(t, err)
		assert.Zero(t, got.DeniedAt)
	})

	t.Run("deleted applications are frozen", func(t *testing.T) {
		fx := newMembershipFixture()
		owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
		member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
		clan := fx.seedClan(owner, member.ID)
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)

		_, err = fx.svc.Pull(ctx, actorFor(member), app.ID)
		require.NoError(t, err)
		_, err = fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipAccepted)
		requireCode(t, err, apperrors.CodeApplicationFrozen)
	})
}

func TestMembershipPull(t *testing.T) {
	ctx := context.Background()
	fx := newMembershipFixture()
	owner := seedUser(fx.users, "10000000000000000", domain.RoleUser)
	member := seedUser(fx.users, "10000000000000001", domain.RoleUser)
	clan := fx.seedClan(owner, member.ID)

	t.Run("submitter only", func(t *testing.T) {
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.Pull(ctx, actorFor(owner), app.ID)
		requireCode(t, err, apperrors.CodeSubmitterMismatch)

		_, err = fx.svc.Pull(ctx, actorFor(member), app.ID)
		require.NoError(t, err)
	})

	t.Run("a rejected application can be pulled and keeps its stamp", func(t *testing.T) {
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.ChangeStatus(ctx, actorFor(owner), app.ID, domain.MembershipRejected)
		require.NoError(t, err)

		got, err := fx.svc.Pull(ctx, actorFor(member), app.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipDeleted, got.Status)
		assert.Equal(t, fx.now, got.DeniedAt)

		stored, err := fx.apps.ByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, fx.now, stored.DeniedAt)
	})

	t.Run("a removed application cannot be pulled again", func(t *testing.T) {
		// Step past the cooldown left by the pulled rejection above.
		fx.now += domain.MembershipCooldownSeconds + 1
		app, err := fx.svc.Apply(ctx, actorFor(member), clan.ID)
		require.NoError(t, err)
		_, err = fx.svc.Pull(ctx, actorFor(member), app.ID)
		require.NoError(t, err)

		_, err = fx.svc.Pull(ctx, actorFor(member), app.ID)
		requireCode(t, err, apperrors.CodeApplicationFrozen)
	})
}
