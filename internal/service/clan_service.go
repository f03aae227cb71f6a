package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
	"clanhub.gg/clanhub/internal/pkg/logger"
	"clanhub.gg/clanhub/internal/pkg/worker"
	"clanhub.gg/clanhub/internal/policy"
	"clanhub.gg/clanhub/internal/repository"
)

// ClanService manages the clan aggregate: creation, delta updates, ratings,
// ownership transfer, and deletion. member_count is a derived field,
// recomputed after every membership-affecting mutation by a detached pool
// task rather than inside the request.
type ClanService struct {
	clans ClanStore
	users UserStore
	pool  *worker.Pool
}

// NewClanService wires the clan manager. A nil pool makes the member-count
// recompute run inline, which the tests rely on.
func NewClanService(clans ClanStore, users UserStore, pool *worker.Pool) *ClanService {
	return &ClanService{clans: clans, users: users, pool: pool}
}

// CreateClanInput carries the creation payload. Owners and Members may
// pre-seed the sets; the requester is force-unioned into both regardless.
type CreateClanInput struct {
	Name        string              `json:"name"`
	Tag         string              `json:"tag"`
	Description string              `json:"description"`
	Logo        string              `json:"logo"`
	Owners      []string            `json:"owners"`
	Members     []string            `json:"members"`
	Socials     []domain.SocialLink `json:"socials"`
	Categories  []string            `json:"categories"`
}

// Create registers a new clan with the actor as lead creator.
func (s *ClanService) Create(ctx context.Context, actor policy.Actor, in CreateClanInput) (*ClanView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "clan name must not be empty")
	}
	tag := strings.ToUpper(strings.TrimSpace(in.Tag))
	if len(tag) < domain.MinTagLength || len(tag) > domain.MaxTagLength {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("clan tag must be %d-%d characters", domain.MinTagLength, domain.MaxTagLength))
	}
	if err := checkSocialAdds(in.Socials); err != nil {
		return nil, err
	}
	if len(in.Socials) > domain.MaxSocialLinks {
		return nil, apperrors.Conflict(apperrors.CodeSocialsLimit,
			fmt.Sprintf("a clan may list at most %d social links", domain.MaxSocialLinks))
	}
	categories, err := normalizeCategories(in.Categories)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = []string{domain.CategoryEverything}
	}

	count, err := s.clans.CountByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxClansPerCreator {
		return nil, apperrors.Conflict(apperrors.CodeClanLimitReached,
			fmt.Sprintf("a user may create at most %d clans", domain.MaxClansPerCreator))
	}
	exists, err := s.clans.ExistsNameTag(ctx, name, tag)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict(apperrors.CodeClanExists, "a clan with this name and tag already exists")
	}

	owners, err := dedupeIDs("owners", append([]string{actor.UserID}, in.Owners...))
	if err != nil {
		return nil, err
	}
	// Owners are always members.
	members, err := dedupeIDs("members", append(append([]string{}, owners...), in.Members...))
	if err != nil {
		return nil, err
	}

	clan := &domain.Clan{
		Name:            name,
		Tag:             tag,
		Description:     strings.TrimSpace(in.Description),
		Logo:            in.Logo,
		Owners:          owners,
		Members:         members,
		Socials:         in.Socials,
		Categories:      categories,
		MemberCount:     len(members),
		PositiveRatings: []string{},
		NegativeRatings: []string{},
		CreatedBy:       actor.UserID,
	}
	id, err := s.clans.Insert(ctx, clan)
	if err != nil {
		return nil, err
	}

	s.syncJoinedClans(ctx, id, members, nil)
	return s.Get(ctx, id)
}

// UpdateClanInput is a sparse update: nil pointers and empty slices leave
// the corresponding field alone.
type UpdateClanInput struct {
	Description *string `json:"description"`
	Logo        *string `json:"logo"`

	AddOwners     []string `json:"add_owners"`
	RemoveOwners  []string `json:"remove_owners"`
	AddMembers    []string `json:"add_members"`
	RemoveMembers []string `json:"remove_members"`

	AddSocials    []domain.SocialLink `json:"add_socials"`
	RemoveSocials []string            `json:"remove_socials"` // platforms

	AddCategories    []string `json:"add_categories"`
	RemoveCategories []string `json:"remove_categories"`
}

// Update applies a sparse delta update to a clan.
func (s *ClanService) Update(ctx context.Context, actor policy.Actor, clanID string, in UpdateClanInput) (*ClanView, error) {
	clan, err := s.loadClan(ctx, clanID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditClan(actor, clan) {
		return nil, apperrors.ErrAccessDenied("you may not edit this clan")
	}

	addOwners, err := dedupeIDs("add_owners", in.AddOwners)
	if err != nil {
		return nil, err
	}
	removeOwners, err := dedupeIDs("remove_owners", in.RemoveOwners)
	if err != nil {
		return nil, err
	}
	addMembers, err := dedupeIDs("add_members", in.AddMembers)
	if err != nil {
		return nil, err
	}
	removeMembers, err := dedupeIDs("remove_members", in.RemoveMembers)
	if err != nil {
		return nil, err
	}

	// Removing a member also removes any ownership they hold, so the
	// owners-never-empty check runs over the union of both removals.
	ownerRemovals := append(append([]string{}, removeOwners...), removeMembers...)
	if len(ownerRemovals) > 0 {
		if !policy.CanRemoveOwners(actor, clan) && touchesOwners(clan, ownerRemovals) {
			return nil, apperrors.ErrAccessDenied("you may not remove clan owners")
		}
		for _, id := range ownerRemovals {
			if clan.IsLeadCreator(id) {
				return nil, apperrors.Conflict(apperrors.CodeLeadTransferNeeded,
					"the lead creator must transfer ownership before leaving")
			}
		}
		if remainingOwners(clan, addOwners, ownerRemovals) == 0 {
			return nil, apperrors.Conflict(apperrors.CodeOwnersEmpty, "a clan must keep at least one owner")
		}
	}

	if err := checkSocialAdds(in.AddSocials); err != nil {
		return nil, err
	}
	if socialCountAfter(clan.Socials, in.AddSocials, in.RemoveSocials) > domain.MaxSocialLinks {
		return nil, apperrors.Conflict(apperrors.CodeSocialsLimit,
			fmt.Sprintf("a clan may list at most %d social links", domain.MaxSocialLinks))
	}

	addCats, err := normalizeCategories(in.AddCategories)
	if err != nil {
		return nil, err
	}
	removeCats, err := normalizeCategories(in.RemoveCategories)
	if err != nil {
		return nil, err
	}

	var deltas []repository.Delta
	if in.Description != nil {
		deltas = append(deltas, repository.ReplaceScalar("description", strings.TrimSpace(*in.Description)))
	}
	if in.Logo != nil {
		deltas = append(deltas, repository.ReplaceScalar("logo", *in.Logo))
	}
	if len(addOwners) > 0 {
		deltas = append(deltas,
			repository.AddToSet("owners", toAny(addOwners)...),
			// Keep owners a subset of members.
			repository.AddToSet("members", toAny(addOwners)...))
	}
	if len(addMembers) > 0 {
		deltas = append(deltas, repository.AddToSet("members", toAny(addMembers)...))
	}
	if len(removeOwners) > 0 {
		deltas = append(deltas, repository.RemoveMatching("owners", toAny(removeOwners)...))
	}
	if len(removeMembers) > 0 {
		deltas = append(deltas,
			repository.RemoveMatching("members", toAny(removeMembers)...),
			repository.RemoveMatching("owners", toAny(removeMembers)...))
	}
	if len(addCats) > 0 {
		deltas = append(deltas, repository.AddToSet("categories", toAny(addCats)...))
	}
	if len(deltas) > 0 {
		if err := s.clans.Apply(ctx, clan.ID, deltas...); err != nil {
			return nil, s.mapClanErr(err)
		}
	}

	// Social adds replace same-platform links, which needs a pull before
	// the union; a single update cannot touch the field with both
	// operators, so this runs as a second step.
	if len(in.AddSocials) > 0 || len(in.RemoveSocials) > 0 {
		if err := s.applySocialDeltas(ctx, clan.ID, in.AddSocials, in.RemoveSocials); err != nil {
			return nil, err
		}
	}

	// Category removals run after the adds for the same single-operator
	// reason; only removals can empty the set, so the sentinel re-default
	// follows them.
	if len(removeCats) > 0 {
		err := s.clans.Apply(ctx, clan.ID, repository.RemoveMatching("categories", toAny(removeCats)...))
		if err != nil {
			return nil, s.mapClanErr(err)
		}
		if err := s.restoreCategoryDefault(ctx, clan.ID); err != nil {
			return nil, err
		}
	}

	if len(addOwners)+len(addMembers)+len(removeMembers) > 0 {
		added := append(append([]string{}, addOwners...), addMembers...)
		s.syncJoinedClans(ctx, clan.ID, added, removeMembers)
		s.ScheduleRecount(clan.ID)
	}
	return s.Get(ctx, clan.ID)
}

func (s *ClanService) applySocialDeltas(ctx context.Context, clanID string, adds []domain.SocialLink, removePlatforms []string) error {
	platforms := make([]interface{}, 0, len(adds)+len(removePlatforms))
	for _, p := range removePlatforms {
		platforms = append(platforms, p)
	}
	for _, a := range adds {
		platforms = append(platforms, a.Platform)
	}
	if len(platforms) > 0 {
		if err := s.clans.Apply(ctx, clanID, repository.RemoveByKey("socials", "platform", platforms...)); err != nil {
			return s.mapClanErr(err)
		}
	}
	if len(adds) > 0 {
		values := make([]interface{}, len(adds))
		for i, a := range adds {
			values[i] = a
		}
		if err := s.clans.Apply(ctx, clanID, repository.AddToSet("socials", values...)); err != nil {
			return s.mapClanErr(err)
		}
	}
	return nil
}

// Rate records the actor's up or down vote. Members only; voting the same
// direction twice is an error, switching direction moves the vote in one
// atomic update.
func (s *ClanService) Rate(ctx context.Context, actor policy.Actor, clanID string, dir domain.RatingDirection) (*ClanView, error) {
	clan, err := s.loadClan(ctx, clanID)
	if err != nil {
		return nil, err
	}
	if !clan.HasMember(actor.UserID) {
		return nil, apperrors.Forbidden(apperrors.CodeNotClanMember, "only clan members may rate the clan")
	}

	target, opposite := "positive_ratings", "negative_ratings"
	rated := clan.PositiveRatings
	if dir == domain.RatingDown {
		target, opposite = opposite, target
		rated = clan.NegativeRatings
	}
	for _, id := range rated {
		if id == actor.UserID {
			return nil, apperrors.Conflict(apperrors.CodeAlreadyRated, "you have already rated this clan")
		}
	}

	err = s.clans.Apply(ctx, clan.ID,
		repository.RemoveMatching(opposite, actor.UserID),
		repository.AddToSet(target, actor.UserID),
	)
	if err != nil {
		return nil, s.mapClanErr(err)
	}
	return s.Get(ctx, clan.ID)
}

// TransferOwnershipInput names the clan and the receiving member. From is
// optional and defaults to the requester; only moderators and above may
// transfer on a lead creator's behalf.
type TransferOwnershipInput struct {
	ClanID string `json:"clan_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// TransferOwnership reassigns the lead creator. Ownership sets are left
// untouched; only created_by moves.
func (s *ClanService) TransferOwnership(ctx context.Context, actor policy.Actor, in TransferOwnershipInput) (*ClanView, error) {
	clan, err := s.loadClan(ctx, in.ClanID)
	if err != nil {
		return nil, err
	}
	if !policy.CanTransferOwnership(actor, clan) {
		return nil, apperrors.ErrAccessDenied("you may not transfer ownership of this clan")
	}

	from := in.From
	if from == "" || (!actor.Developer && !actor.Role.AtLeast(domain.RoleModerator)) {
		from = actor.UserID
	}
	if !clan.IsLeadCreator(from) {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			"ownership can only be transferred from the lead creator")
	}
	if !domain.ValidID(in.To) {
		return nil, apperrors.ErrInvalidID("to")
	}
	if from == in.To {
		return nil, apperrors.Conflict(apperrors.CodeSelfTransfer, "ownership cannot be transferred to its current holder")
	}

	to, err := s.users.ByID(ctx, in.To)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound()
		}
		return nil, err
	}
	if to.Banned {
		return nil, apperrors.Conflict(apperrors.CodeTargetBanned, "ownership cannot be transferred to a banned user")
	}
	if !clan.HasMember(to.ID) {
		return nil, apperrors.Conflict(apperrors.CodeNotClanMember, "the receiving user must be a clan member")
	}

	if err := s.clans.Apply(ctx, clan.ID, repository.ReplaceScalar("created_by", to.ID)); err != nil {
		return nil, s.mapClanErr(err)
	}
	return s.Get(ctx, clan.ID)
}

// Delete removes the clan and detaches it from every member's joined set.
func (s *ClanService) Delete(ctx context.Context, actor policy.Actor, clanID string) error {
	clan, err := s.loadClan(ctx, clanID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteClan(actor, clan) {
		return apperrors.ErrAccessDenied("you may not delete this clan")
	}
	if err := s.clans.Delete(ctx, clan.ID); err != nil {
		return s.mapClanErr(err)
	}
	s.syncJoinedClans(ctx, clan.ID, nil, clan.Members)
	return nil
}

// Get returns one populated clan.
func (s *ClanService) Get(ctx context.Context, clanID string) (*ClanView, error) {
	clan, err := s.loadClan(ctx, clanID)
	if err != nil {
		return nil, err
	}
	views, err := buildClanViews(ctx, s.users, []domain.Clan{*clan})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns populated clans matching the filter.
func (s *ClanService) List(ctx context.Context, f domain.ClanFilter) ([]ClanView, error) {
	clans, err := s.clans.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	return buildClanViews(ctx, s.users, clans)
}

// ScheduleRecount queues a member-count recompute for the clan. Without a
// pool the recompute runs inline. A clan deleted before the task runs is a
// no-op.
func (s *ClanService) ScheduleRecount(clanID string) {
	if s.pool == nil {
		s.recount(context.Background(), clanID)
		return
	}
	if err := s.pool.SubmitDetached(func(ctx context.Context) {
		s.recount(ctx, clanID)
	}); err != nil {
		logger.Warn("Member count recompute not scheduled",
			zap.String("clan_id", clanID), zap.Error(err))
	}
}

func (s *ClanService) recount(ctx context.Context, clanID string) {
	clan, err := s.clans.ByID(ctx, clanID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Member count recompute read failed",
				zap.String("clan_id", clanID), zap.Error(err))
		}
		return
	}
	if clan.MemberCount == len(clan.Members) {
		return
	}
	err = s.clans.Apply(ctx, clanID, repository.ReplaceScalar("member_count", len(clan.Members)))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Warn("Member count recompute write failed",
			zap.String("clan_id", clanID), zap.Error(err))
	}
}

// syncJoinedClans mirrors membership changes onto the affected users'
// joined_clans sets. Best-effort: a missing profile is skipped, other
// failures are logged and the derived set heals on the next mutation.
func (s *ClanService) syncJoinedClans(ctx context.Context, clanID string, added, removed []string) {
	for _, userID := range added {
		err := s.users.Apply(ctx, userID, repository.AddToSet("joined_clans", clanID))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Joined clans sync failed",
				zap.String("user_id", userID), zap.String("clan_id", clanID), zap.Error(err))
		}
	}
	for _, userID := range removed {
		err := s.users.Apply(ctx, userID, repository.RemoveMatching("joined_clans", clanID))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Joined clans sync failed",
				zap.String("user_id", userID), zap.String("clan_id", clanID), zap.Error(err))
		}
	}
}

func (s *ClanService) loadClan(ctx context.Context, clanID string) (*domain.Clan, error) {
	if !domain.ValidID(clanID) {
		return nil, apperrors.ErrInvalidID("clan_id")
	}
	clan, err := s.clans.ByID(ctx, clanID)
	if err != nil {
		return nil, s.mapClanErr(err)
	}
	return clan, nil
}

func (s *ClanService) mapClanErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrClanNotFound()
	}
	return err
}

// restoreCategoryDefault re-reads the clan after category removals and
// puts the sentinel back when the set came out empty.
func (s *ClanService) restoreCategoryDefault(ctx context.Context, clanID string) error {
	clan, err := s.clans.ByID(ctx, clanID)
	if err != nil {
		return s.mapClanErr(err)
	}
	if len(clan.Categories) > 0 {
		return nil
	}
	err = s.clans.Apply(ctx, clanID,
		repository.ReplaceScalar("categories", []string{domain.CategoryEverything}))
	if err != nil {
		return s.mapClanErr(err)
	}
	return nil
}

// touchesOwners reports whether any of the ids currently hold ownership.
func touchesOwners(clan *domain.Clan, ids []string) bool {
	for _, id := range ids {
		if clan.HasOwner(id) {
			return true
		}
	}
	return false
}

// remainingOwners sizes the owners set after the pending additions and
// removals.
func remainingOwners(clan *domain.Clan, adds, removes []string) int {
	next := make(map[string]struct{}, len(clan.Owners)+len(adds))
	for _, id := range clan.Owners {
		next[id] = struct{}{}
	}
	for _, id := range adds {
		next[id] = struct{}{}
	}
	for _, id := range removes {
		delete(next, id)
	}
	return len(next)
}

func toAny(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
