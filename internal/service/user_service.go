package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
	"clanhub.gg/clanhub/internal/policy"
	"clanhub.gg/clanhub/internal/repository"
)

// Profile field bounds.
const (
	minUsernameLen = 2
	maxUsernameLen = 32
	maxBioLen      = 1000
)

var discordIDPattern = regexp.MustCompile(`^[0-9]{17,18}$`)

// UserService manages hub profiles: explicit creation, sparse updates,
// deletion, and the ban flag. Cross-user mutations run through the
// checkmate guard in the policy package.
type UserService struct {
	users UserStore
	clans ClanStore

	now func() int64
}

// NewUserService wires the user manager. The clan store backs the
// joined-clan filter resolution on list reads.
func NewUserService(users UserStore, clans ClanStore) *UserService {
	return &UserService{
		users: users,
		clans: clans,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// CreateUserInput carries an explicit (admin-side) profile creation.
type CreateUserInput struct {
	DiscordID string              `json:"discord_id"`
	Username  string              `json:"username"`
	Avatar    string              `json:"avatar"`
	Bio       string              `json:"bio"`
	Socials   []domain.SocialLink `json:"socials"`
}

// Create registers a profile without going through the OAuth flow.
// Admin-only.
func (s *UserService) Create(ctx context.Context, actor policy.Actor, in CreateUserInput) (*domain.User, error) {
	if !actor.Developer && !actor.Role.AtLeast(domain.RoleAdmin) {
		return nil, apperrors.ErrAccessDenied("only admins may create users")
	}
	if !discordIDPattern.MatchString(in.DiscordID) {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "discord id must be a 17-18 digit snowflake")
	}
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("username must be %d-%d characters", minUsernameLen, maxUsernameLen))
	}
	if utf8.RuneCountInString(in.Bio) > maxBioLen {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("bio must be at most %d characters", maxBioLen))
	}
	if err := checkSocialAdds(in.Socials); err != nil {
		return nil, err
	}
	if len(in.Socials) > domain.MaxSocialLinks {
		return nil, apperrors.Conflict(apperrors.CodeSocialsLimit,
			fmt.Sprintf("a user may list at most %d social links", domain.MaxSocialLinks))
	}

	if _, err := s.users.ByDiscordID(ctx, in.DiscordID); err == nil {
		return nil, apperrors.Conflict(apperrors.CodeUserExists, "a user with this discord id already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	avatar := in.Avatar
	if avatar == "" {
		avatar = domain.DefaultAvatarURL
	}
	user := &domain.User{
		DiscordID:   in.DiscordID,
		Username:    username,
		Role:        domain.RoleUser,
		Avatar:      avatar,
		Bio:         in.Bio,
		Socials:     in.Socials,
		JoinedClans: []string{},
		CreatedAt:   s.now(),
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserInput is a sparse profile update keyed by discord id in the
// route. Role changes ride the same endpoint but are gated separately.
type UpdateUserInput struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
	Bio      *string `json:"bio"`
	Role     *string `json:"role"`

	AddSocials    []domain.SocialLink `json:"add_socials"`
	RemoveSocials []string            `json:"remove_socials"` // platforms

	AddJoinedClans    []string `json:"add_joined_clans"`
	RemoveJoinedClans []string `json:"remove_joined_clans"`
}

// Update applies a sparse delta update to the target profile.
func (s *UserService) Update(ctx context.Context, actor policy.Actor, discordID string, in UpdateUserInput) (*domain.User, error) {
	target, err := s.loadByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditUser(actor, target) {
		return nil, apperrors.ErrAccessDenied("you may not edit this user")
	}

	var deltas []repository.Delta
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
				fmt.Sprintf("username must be %d-%d characters", minUsernameLen, maxUsernameLen))
		}
		deltas = append(deltas, repository.ReplaceScalar("username", username))
	}
	if in.Avatar != nil {
		deltas = append(deltas, repository.ReplaceScalar("avatar", *in.Avatar))
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
				fmt.Sprintf("bio must be at most %d characters", maxBioLen))
		}
		deltas = append(deltas, repository.ReplaceScalar("bio", *in.Bio))
	}
	if in.Role != nil {
		role, perr := domain.ParseRole(*in.Role)
		if perr != nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRole, perr.Error())
		}
		if !policy.CanChangeRole(actor, role) {
			return nil, apperrors.ErrAccessDenied("you may not assign this role")
		}
		deltas = append(deltas, repository.ReplaceScalar("role", string(role)))
	}

	if err := checkSocialAdds(in.AddSocials); err != nil {
		return nil, err
	}
	if socialCountAfter(target.Socials, in.AddSocials, in.RemoveSocials) > domain.MaxSocialLinks {
		return nil, apperrors.Conflict(apperrors.CodeSocialsLimit,
			fmt.Sprintf("a user may list at most %d social links", domain.MaxSocialLinks))
	}

	addClans, err := dedupeIDs("add_joined_clans", in.AddJoinedClans)
	if err != nil {
		return nil, err
	}
	removeClans, err := dedupeIDs("remove_joined_clans", in.RemoveJoinedClans)
	if err != nil {
		return nil, err
	}
	if len(addClans) > 0 {
		deltas = append(deltas, repository.AddToSet("joined_clans", toAny(addClans)...))
	}
	if len(removeClans) > 0 {
		deltas = append(deltas, repository.RemoveMatching("joined_clans", toAny(removeClans)...))
	}

	if len(deltas) > 0 {
		if err := s.users.Apply(ctx, target.ID, deltas...); err != nil {
			return nil, s.mapErr(err)
		}
	}

	// Same two-step dance as clan socials: adds replace same-platform
	// links, and one update cannot pull and union the same field.
	if len(in.AddSocials) > 0 || len(in.RemoveSocials) > 0 {
		if err := s.applySocialDeltas(ctx, target.ID, in.AddSocials, in.RemoveSocials); err != nil {
			return nil, err
		}
	}
	return s.loadByDiscordID(ctx, discordID)
}

func (s *UserService) applySocialDeltas(ctx context.Context, userID string, adds []domain.SocialLink, removePlatforms []string) error {
	platforms := make([]interface{}, 0, len(adds)+len(removePlatforms))
	for _, p := range removePlatforms {
		platforms = append(platforms, p)
	}
	for _, a := range adds {
		platforms = append(platforms, a.Platform)
	}
	if len(platforms) > 0 {
		if err := s.users.Apply(ctx, userID, repository.RemoveByKey("socials", "platform", platforms...)); err != nil {
			return s.mapErr(err)
		}
	}
	if len(adds) > 0 {
		values := make([]interface{}, len(adds))
		for i, a := range adds {
			values[i] = a
		}
		if err := s.users.Apply(ctx, userID, repository.AddToSet("socials", values...)); err != nil {
			return s.mapErr(err)
		}
	}
	return nil
}

// LoginUpsert creates or refreshes the profile behind an OAuth login.
// Username and avatar track the identity provider on every login; the rest
// of the profile is untouched.
func (s *UserService) LoginUpsert(ctx context.Context, discordID, username, avatar string) (*domain.User, error) {
	if !discordIDPattern.MatchString(discordID) {
		return nil, apperrors.ErrInvalidID("discord_id")
	}
	if avatar == "" {
		avatar = domain.DefaultAvatarURL
	}
	return s.users.UpsertByDiscordID(ctx, discordID, username, avatar)
}

// Delete removes the target profile. Self-deletion is allowed; cross-user
// deletion follows the checkmate guard. Clan membership references are left
// in place and drop out of populated reads.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, discordID string) error {
	target, err := s.loadByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteUser(actor, target) {
		return apperrors.ErrAccessDenied("you may not delete this user")
	}
	if err := s.users.Delete(ctx, target.ID); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// SetBanned bans or unbans the target. Self-ban is denied for everyone.
func (s *UserService) SetBanned(ctx context.Context, actor policy.Actor, discordID string, banned bool) (*domain.User, error) {
	target, err := s.loadByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if !policy.CanBanUser(actor, target) {
		if actor.UserID == target.ID || actor.DiscordID == target.DiscordID {
			return nil, apperrors.Conflict(apperrors.CodeSelfBan, "you cannot ban or unban yourself")
		}
		return nil, apperrors.ErrAccessDenied("you may not ban this user")
	}
	if err := s.users.Apply(ctx, target.ID, repository.ReplaceScalar("banned", banned)); err != nil {
		return nil, s.mapErr(err)
	}
	target.Banned = banned
	return target, nil
}

// Get returns the profile for a discord id with private socials stripped.
func (s *UserService) Get(ctx context.Context, discordID string) (*domain.User, error) {
	user, err := s.loadByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	pub := publicProfile(*user)
	return &pub, nil
}

// Me returns the caller's own full profile, private socials included.
func (s *UserService) Me(ctx context.Context, actor policy.Actor) (*domain.User, error) {
	if actor.UserID == "" {
		return nil, apperrors.ErrUserNotFound()
	}
	user, err := s.users.ByID(ctx, actor.UserID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return user, nil
}

// ListUsersInput is the public list query. Clans terms are resolved
// against clan names, tags, and ids before filtering on joined_clans.
type ListUsersInput struct {
	Search     []string
	Clans      []string
	DiscordIDs []string
	IDs        []string
	Roles      []string
}

// List returns profiles matching the query, private socials stripped.
func (s *UserService) List(ctx context.Context, in ListUsersInput) ([]domain.User, error) {
	for _, r := range in.Roles {
		if _, err := domain.ParseRole(r); err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRole, err.Error())
		}
	}

	f := domain.UserFilter{
		Search:     in.Search,
		DiscordIDs: in.DiscordIDs,
		IDs:        in.IDs,
		Roles:      in.Roles,
	}
	if len(in.Clans) > 0 {
		clanIDs, err := s.resolveClanIDs(ctx, in.Clans)
		if err != nil {
			return nil, err
		}
		if len(clanIDs) == 0 {
			return []domain.User{}, nil
		}
		f.JoinedClans = clanIDs
	}

	users, err := s.users.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, publicProfile(u))
	}
	return out, nil
}

// resolveClanIDs maps free-form clan terms (name fragment, tag fragment,
// or document id) onto clan document ids.
func (s *UserService) resolveClanIDs(ctx context.Context, terms []string) ([]string, error) {
	ids := make([]string, 0, len(terms))
	seen := make(map[string]struct{})
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	var fragments []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if domain.ValidID(t) {
			add(t)
			continue
		}
		fragments = append(fragments, t)
	}
	if len(fragments) > 0 {
		byName, err := s.clans.Find(ctx, domain.ClanFilter{Names: fragments})
		if err != nil {
			return nil, err
		}
		byTag, err := s.clans.Find(ctx, domain.ClanFilter{Tags: fragments})
		if err != nil {
			return nil, err
		}
		for _, c := range append(byName, byTag...) {
			add(c.ID)
		}
	}
	return ids, nil
}

func (s *UserService) loadByDiscordID(ctx context.Context, discordID string) (*domain.User, error) {
	if !discordIDPattern.MatchString(discordID) {
		return nil, apperrors.ErrInvalidID("discord_id")
	}
	user, err := s.users.ByDiscordID(ctx, discordID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return user, nil
}

func (s *UserService) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrUserNotFound()
	}
	return err
}
