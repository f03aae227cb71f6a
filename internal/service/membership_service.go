package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
	"clanhub.gg/clanhub/internal/policy"
	"clanhub.gg/clanhub/internal/repository"
)

// MembershipService runs the clan join workflow.
//
// Clan owners move an application between applied, accepted and rejected;
// the submitter may pull any of those into deleted, the only terminal
// status. A rejection starts a seven-day re-application cooldown that
// survives a later pull.
type MembershipService struct {
	apps  MembershipStore
	clans ClanStore
	clan  *ClanService

	now func() int64
}

// NewMembershipService wires the membership workflow. The clan service
// handles the member-set and member-count side effects of acceptance.
func NewMembershipService(apps MembershipStore, clans ClanStore, clan *ClanService) *MembershipService {
	return &MembershipService{
		apps:  apps,
		clans: clans,
		clan:  clan,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// Apply opens a membership application for the actor. The submitter must
// already hold membership in the clan; the latest application per
// (clan, submitter) pair decides duplicates and the rejection cooldown.
func (s *MembershipService) Apply(ctx context.Context, actor policy.Actor, clanID string) (*domain.MembershipApplication, error) {
	if !domain.ValidID(clanID) {
		return nil, apperrors.ErrInvalidID("clan_id")
	}
	clan, err := s.clans.ByID(ctx, clanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrClanNotFound()
		}
		return nil, err
	}
	if !clan.HasMember(actor.UserID) {
		return nil, apperrors.Forbidden(apperrors.CodeNotClanMember,
			"you must be a clan member to apply")
	}

	latest, err := s.apps.LatestFor(ctx, clan.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		switch latest.Status {
		case domain.MembershipApplied, domain.MembershipAccepted:
			return nil, apperrors.Conflict(apperrors.CodeDuplicateApplication,
				"you already have an open or accepted application for this clan")
		default:
			// Rejected, or pulled after a rejection; the stamp decides.
			if latest.InCooldown(s.now()) {
				return nil, apperrors.Conflict(apperrors.CodeCooldownActive,
					"a rejected application blocks re-applying for seven days").
					WithParams(map[string]interface{}{"time_remaining_seconds": latest.CooldownRemaining(s.now())})
			}
		}
	}

	app := &domain.MembershipApplication{
		ClanID:      clan.ID,
		SubmittedBy: actor.UserID,
		Status:      domain.MembershipApplied,
		CreatedAt:   s.now(),
	}
	if _, err := s.apps.Insert(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ChangeStatus is the owner-side transition. Rejection stamps denied_at,
// every other status clears it; acceptance joins the submitter into the
// clan's member set.
func (s *MembershipService) ChangeStatus(ctx context.Context, actor policy.Actor, id string, status domain.MembershipStatus) (*domain.MembershipApplication, error) {
	if !domain.ValidMembershipTarget(status) {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidStatus,
			fmt.Sprintf("unknown membership status %q", status))
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	clan, err := s.clans.ByID(ctx, app.ClanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrClanNotFound()
		}
		return nil, err
	}
	if !actor.Developer && !clan.HasOwner(actor.UserID) && !clan.IsLeadCreator(actor.UserID) {
		return nil, apperrors.ErrAccessDenied("only clan owners may decide membership applications")
	}
	if app.Status == domain.MembershipDeleted {
		return nil, apperrors.Conflict(apperrors.CodeApplicationFrozen,
			"a deleted application cannot change status")
	}

	var deniedAt int64
	if status == domain.MembershipRejected {
		deniedAt = s.now()
	}
	if err := s.apps.SetStatus(ctx, app.ID, status, deniedAt); err != nil {
		return nil, s.mapErr(err)
	}
	app.Status = status
	app.DeniedAt = deniedAt

	if status == domain.MembershipAccepted {
		err := s.clans.Apply(ctx, clan.ID, repository.AddToSet("members", app.SubmittedBy))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if s.clan != nil {
			s.clan.syncJoinedClans(ctx, clan.ID, []string{app.SubmittedBy}, nil)
			s.clan.ScheduleRecount(clan.ID)
		}
	}
	return app, nil
}

// Pull is the submitter withdrawing an application. Any status but
// deleted can be pulled; a rejection stamp stays on the document so the
// cooldown keeps running.
func (s *MembershipService) Pull(ctx context.Context, actor policy.Actor, id string) (*domain.MembershipApplication, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Developer && app.SubmittedBy != actor.UserID {
		return nil, apperrors.Forbidden(apperrors.CodeSubmitterMismatch,
			"only the submitter may pull an application")
	}
	if app.Status == domain.MembershipDeleted {
		return nil, apperrors.Conflict(apperrors.CodeApplicationFrozen,
			"the application is already removed")
	}
	if err := s.apps.SetStatus(ctx, app.ID, domain.MembershipDeleted, app.DeniedAt); err != nil {
		return nil, s.mapErr(err)
	}
	app.Status = domain.MembershipDeleted
	return app, nil
}

// Get returns one application by id.
func (s *MembershipService) Get(ctx context.Context, id string) (*domain.MembershipApplication, error) {
	return s.load(ctx, id)
}

// List returns applications matching the filter.
func (s *MembershipService) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	return s.apps.Find(ctx, f)
}

func (s *MembershipService) load(ctx context.Context, id string) (*domain.MembershipApplication, error) {
	if !domain.ValidID(id) {
		return nil, apperrors.ErrInvalidID("application_id")
	}
	app, err := s.apps.ByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return app, nil
}

func (s *MembershipService) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrApplicationNotFound()
	}
	return err
}
