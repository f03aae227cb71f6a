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

// FederationService runs the workflow by which a clan applies for the
// platform-wide approved flag.
//
// Transitions: applied → in_review → {accepted, denied} by admins, and any
// non-deleted state → deleted by the submitter. Deleted is terminal.
type FederationService struct {
	apps  FederationStore
	clans ClanStore

	now func() int64
}

// NewFederationService wires the federation workflow.
func NewFederationService(apps FederationStore, clans ClanStore) *FederationService {
	return &FederationService{
		apps:  apps,
		clans: clans,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// Apply opens a federation application for the clan. One non-deleted
// application per clan; at most three pending applications per submitter
// across all clans.
func (s *FederationService) Apply(ctx context.Context, actor policy.Actor, clanID string) (*domain.FederationApplication, error) {
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
	if !actor.Developer && !clan.HasOwner(actor.UserID) && !clan.IsLeadCreator(actor.UserID) {
		return nil, apperrors.ErrAccessDenied("only clan owners may apply for federation")
	}

	active, err := s.apps.CountActiveForClan(ctx, clan.ID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, apperrors.Conflict(apperrors.CodeDuplicateApplication,
			"this clan already has an open federation application")
	}
	pending, err := s.apps.CountPendingBySubmitter(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if pending >= domain.MaxPendingFederationApplications {
		return nil, apperrors.Conflict(apperrors.CodePendingLimitReached,
			fmt.Sprintf("at most %d federation applications may be pending at once", domain.MaxPendingFederationApplications))
	}

	app := &domain.FederationApplication{
		ClanID:      clan.ID,
		SubmittedBy: actor.UserID,
		Status:      domain.FederationApplied,
		CreatedAt:   s.now(),
	}
	if _, err := s.apps.Insert(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ChangeStatus is the administrative transition. Accepting sets the clan's
// approved flag; every other status clears it.
func (s *FederationService) ChangeStatus(ctx context.Context, actor policy.Actor, id string, status domain.FederationStatus) (*domain.FederationApplication, error) {
	if !policy.CanChangeApplicationStatus(actor) {
		return nil, apperrors.ErrAccessDenied("only admins may change federation application status")
	}
	if !domain.ValidFederationTarget(status) {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidStatus,
			fmt.Sprintf("unknown federation status %q", status))
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status == domain.FederationDeleted {
		return nil, apperrors.Conflict(apperrors.CodeApplicationFrozen,
			"a deleted application cannot change status")
	}

	if err := s.apps.SetStatus(ctx, app.ID, status); err != nil {
		return nil, s.mapErr(err)
	}
	app.Status = status

	// The approved flag tracks the latest administrative decision. The
	// clan may have been deleted since the application was filed.
	err = s.clans.Apply(ctx, app.ClanID,
		repository.ReplaceScalar("approved", status == domain.FederationAccepted))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return app, nil
}

// Pull is the submitter withdrawing the application. One-way.
func (s *FederationService) Pull(ctx context.Context, actor policy.Actor, id string) (*domain.FederationApplication, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Developer && app.SubmittedBy != actor.UserID {
		return nil, apperrors.Forbidden(apperrors.CodeSubmitterMismatch,
			"only the submitter may pull an application")
	}
	if app.Status == domain.FederationDeleted {
		return nil, apperrors.Conflict(apperrors.CodeApplicationFrozen,
			"this application has already been pulled")
	}
	if err := s.apps.SetStatus(ctx, app.ID, domain.FederationDeleted); err != nil {
		return nil, s.mapErr(err)
	}
	app.Status = domain.FederationDeleted
	return app, nil
}

// Get returns one application by id.
func (s *FederationService) Get(ctx context.Context, id string) (*domain.FederationApplication, error) {
	return s.load(ctx, id)
}

// List returns applications matching the filter.
func (s *FederationService) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.FederationApplication, error) {
	return s.apps.Find(ctx, f)
}

func (s *FederationService) load(ctx context.Context, id string) (*domain.FederationApplication, error) {
	if !domain.ValidID(id) {
		return nil, apperrors.ErrInvalidID("application_id")
	}
	app, err := s.apps.ByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return app, nil
}

func (s *FederationService) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrApplicationNotFound()
	}
	return err
}
