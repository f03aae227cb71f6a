package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"clanhub.gg/clanhub/internal/domain"
	"clanhub.gg/clanhub/internal/repository"
)

// In-memory store fakes. They mirror the store semantics the services rely
// on: set deltas commute, ids resolve or return repository.ErrNotFound,
// filters are AND-of-conditions with case-insensitive contains matching.

type idSeq struct{ n int }

func (s *idSeq) next() string {
	s.n++
	return fmt.Sprintf("%024x", s.n)
}

func containsFold(haystack string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(h, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func inSet(v string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(vals, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range vals {
		for _, s := range set {
			if v == s {
				return true
			}
		}
	}
	return false
}

func addStringSet(set []string, values []interface{}) []string {
	for _, v := range values {
		s, _ := v.(string)
		found := false
		for _, e := range set {
			if e == s {
				found = true
				break
			}
		}
		if !found {
			set = append(set, s)
		}
	}
	return set
}

func removeStringSet(set []string, values []interface{}) []string {
	drop := make(map[string]struct{}, len(values))
	for _, v := range values {
		s, _ := v.(string)
		drop[s] = struct{}{}
	}
	out := set[:0]
	for _, e := range set {
		if _, ok := drop[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// fakeUsers implements UserStore.

type fakeUsers struct {
	mu   sync.Mutex
	seq  idSeq
	docs map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{docs: make(map[string]*domain.User)}
}

func (f *fakeUsers) add(u domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = f.seq.next()
	}
	cp := u
	f.docs[u.ID] = &cp
	return u
}

func (f *fakeUsers) ByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.docs[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) ByDiscordID(_ context.Context, discordID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.docs {
		if u.DiscordID == discordID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) ManyByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.docs[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Find(_ context.Context, flt domain.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.docs {
		if !containsFold(u.Username, flt.Search) {
			continue
		}
		if !intersects(u.JoinedClans, flt.JoinedClans) {
			continue
		}
		if !inSet(u.DiscordID, flt.DiscordIDs) || !inSet(u.ID, flt.IDs) || !inSet(string(u.Role), flt.Roles) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Insert(_ context.Context, u *domain.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.seq.next()
	cp := *u
	f.docs[u.ID] = &cp
	return u.ID, nil
}

func (f *fakeUsers) UpsertByDiscordID(ctx context.Context, discordID, username, avatar string) (*domain.User, error) {
	f.mu.Lock()
	for _, u := range f.docs {
		if u.DiscordID == discordID {
			u.Username = username
			u.Avatar = avatar
			cp := *u
			f.mu.Unlock()
			return &cp, nil
		}
	}
	f.mu.Unlock()
	u := &domain.User{
		DiscordID:   discordID,
		Username:    username,
		Avatar:      avatar,
		Role:        domain.RoleUser,
		JoinedClans: []string{},
	}
	_, err := f.Insert(ctx, u)
	return u, err
}

func (f *fakeUsers) Apply(_ context.Context, id string, deltas ...repository.Delta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, d := range deltas {
		switch d.Op {
		case repository.OpAddToSet:
			switch d.Field {
			case "joined_clans":
				u.JoinedClans = addStringSet(u.JoinedClans, d.Values)
			case "socials":
				for _, v := range d.Values {
					u.Socials = append(u.Socials, v.(domain.SocialLink))
				}
			}
		case repository.OpRemoveMatching:
			switch d.Field {
			case "joined_clans":
				u.JoinedClans = removeStringSet(u.JoinedClans, d.Values)
			case "socials":
				drop := make(map[string]struct{})
				for _, v := range d.Values {
					drop[strings.ToLower(v.(string))] = struct{}{}
				}
				kept := u.Socials[:0]
				for _, s := range u.Socials {
					if _, ok := drop[strings.ToLower(s.Platform)]; !ok {
						kept = append(kept, s)
					}
				}
				u.Socials = kept
			}
		case repository.OpReplaceScalar:
			switch d.Field {
			case "username":
				u.Username = d.Value.(string)
			case "avatar":
				u.Avatar = d.Value.(string)
			case "bio":
				u.Bio = d.Value.(string)
			case "role":
				u.Role = domain.Role(d.Value.(string))
			case "banned":
				u.Banned = d.Value.(bool)
			}
		}
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

// fakeClans implements ClanStore.

type fakeClans struct {
	mu   sync.Mutex
	seq  idSeq
	docs map[string]*domain.Clan
}

func newFakeClans() *fakeClans {
	return &fakeClans{docs: make(map[string]*domain.Clan)}
}

func (f *fakeClans) add(c domain.Clan) domain.Clan {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.seq.next()
	}
	cp := c
	f.docs[c.ID] = &cp
	return c
}

func (f *fakeClans) ByID(_ context.Context, id string) (*domain.Clan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.docs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeClans) Find(_ context.Context, flt domain.ClanFilter) ([]domain.Clan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Clan
	for _, c := range f.docs {
		if !containsFold(c.Name, flt.Names) || !containsFold(c.Tag, flt.Tags) {
			continue
		}
		if !inSet(c.ID, flt.IDs) || !intersects(c.Owners, flt.Owners) || !intersects(c.Categories, flt.Categories) {
			continue
		}
		if flt.Approved != nil && c.Approved != *flt.Approved {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClans) CountByCreator(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.docs {
		if c.CreatedBy == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeClans) ExistsNameTag(_ context.Context, name, tag string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.docs {
		if c.Name == name && c.Tag == tag {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClans) Insert(_ context.Context, c *domain.Clan) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.seq.next()
	cp := *c
	f.docs[c.ID] = &cp
	return c.ID, nil
}

func (f *fakeClans) Apply(_ context.Context, id string, deltas ...repository.Delta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, d := range deltas {
		switch d.Op {
		case repository.OpAddToSet:
			switch d.Field {
			case "owners":
				c.Owners = addStringSet(c.Owners, d.Values)
			case "members":
				c.Members = addStringSet(c.Members, d.Values)
			case "positive_ratings":
				c.PositiveRatings = addStringSet(c.PositiveRatings, d.Values)
			case "negative_ratings":
				c.NegativeRatings = addStringSet(c.NegativeRatings, d.Values)
			case "categories":
				c.Categories = addStringSet(c.Categories, d.Values)
			case "socials":
				for _, v := range d.Values {
					c.Socials = append(c.Socials, v.(domain.SocialLink))
				}
			}
		case repository.OpRemoveMatching:
			switch d.Field {
			case "owners":
				c.Owners = removeStringSet(c.Owners, d.Values)
			case "members":
				c.Members = removeStringSet(c.Members, d.Values)
			case "positive_ratings":
				c.PositiveRatings = removeStringSet(c.PositiveRatings, d.Values)
			case "negative_ratings":
				c.NegativeRatings = removeStringSet(c.NegativeRatings, d.Values)
			case "categories":
				c.Categories = removeStringSet(c.Categories, d.Values)
			case "socials":
				drop := make(map[string]struct{})
				for _, v := range d.Values {
					drop[strings.ToLower(v.(string))] = struct{}{}
				}
				kept := c.Socials[:0]
				for _, s := range c.Socials {
					if _, ok := drop[strings.ToLower(s.Platform)]; !ok {
						kept = append(kept, s)
					}
				}
				c.Socials = kept
			}
		case repository.OpReplaceScalar:
			switch d.Field {
			case "description":
				c.Description = d.Value.(string)
			case "logo":
				c.Logo = d.Value.(string)
			case "created_by":
				c.CreatedBy = d.Value.(string)
			case "approved":
				c.Approved = d.Value.(bool)
			case "member_count":
				c.MemberCount = d.Value.(int)
			case "categories":
				c.Categories = d.Value.([]string)
			case "edited_at":
				c.EditedAt = d.Value.(int64)
			}
		}
	}
	return nil
}

func (f *fakeClans) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

// fakeFederations implements FederationStore.

type fakeFederations struct {
	mu   sync.Mutex
	seq  idSeq
	docs map[string]*domain.FederationApplication
}

func newFakeFederations() *fakeFederations {
	return &fakeFederations{docs: make(map[string]*domain.FederationApplication)}
}

func (f *fakeFederations) ByID(_ context.Context, id string) (*domain.FederationApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.docs[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFederations) Find(_ context.Context, flt domain.ApplicationFilter) ([]domain.FederationApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FederationApplication
	for _, a := range f.docs {
		if !inSet(a.ID, flt.IDs) || !inSet(a.SubmittedBy, flt.SubmittedBy) || !inSet(a.ClanID, flt.ClanIDs) {
			continue
		}
		if !containsFold(string(a.Status), flt.Statuses) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeFederations) CountActiveForClan(_ context.Context, clanID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.docs {
		if a.ClanID == clanID && a.Status != domain.FederationDeleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeFederations) CountPendingBySubmitter(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.docs {
		if a.SubmittedBy == userID && a.Status.Pending() {
			n++
		}
	}
	return n, nil
}

func (f *fakeFederations) Insert(_ context.Context, a *domain.FederationApplication) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.seq.next()
	cp := *a
	f.docs[a.ID] = &cp
	return a.ID, nil
}

func (f *fakeFederations) SetStatus(_ context.Context, id string, status domain.FederationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	return nil
}

// fakeMemberships implements MembershipStore.

type fakeMemberships struct {
	mu   sync.Mutex
	seq  idSeq
	docs []*domain.MembershipApplication
}

func newFakeMemberships() *fakeMemberships {
	return &fakeMemberships{}
}

func (f *fakeMemberships) ByID(_ context.Context, id string) (*domain.MembershipApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.docs {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMemberships) Find(_ context.Context, flt domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MembershipApplication
	for _, a := range f.docs {
		if !inSet(a.ID, flt.IDs) || !inSet(a.SubmittedBy, flt.SubmittedBy) || !inSet(a.ClanID, flt.ClanIDs) {
			continue
		}
		if !containsFold(string(a.Status), flt.Statuses) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeMemberships) LatestFor(_ context.Context, clanID, userID string) (*domain.MembershipApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.MembershipApplication
	for _, a := range f.docs {
		if a.ClanID != clanID || a.SubmittedBy != userID {
			continue
		}
		if latest == nil || a.CreatedAt >= latest.CreatedAt {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeMemberships) Insert(_ context.Context, a *domain.MembershipApplication) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.seq.next()
	cp := *a
	f.docs = append(f.docs, &cp)
	return a.ID, nil
}

func (f *fakeMemberships) SetStatus(_ context.Context, id string, status domain.MembershipStatus, deniedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.docs {
		if a.ID == id {
			a.Status = status
			a.DeniedAt = deniedAt
			return nil
		}
	}
	return repository.ErrNotFound
}
