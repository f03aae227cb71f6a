// Package service implements the clan hub business logic: the clan
// aggregate manager, the two application workflows, and user management.
//
// Services depend on narrow store interfaces so the core is unit-testable
// without a running document store. Services never manage transactions;
// single-document atomicity comes from the store's delta primitives, and
// check-then-act sequences across documents are best-effort by design.
package service

import (
	"context"

	"clanhub.gg/clanhub/internal/domain"
	"clanhub.gg/clanhub/internal/repository"
)

// UserStore is the user persistence contract.
type UserStore interface {
	ByID(ctx context.Context, id string) (*domain.User, error)
	ByDiscordID(ctx context.Context, discordID string) (*domain.User, error)
	ManyByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	Find(ctx context.Context, f domain.UserFilter) ([]domain.User, error)
	Insert(ctx context.Context, u *domain.User) (string, error)
	UpsertByDiscordID(ctx context.Context, discordID, username, avatar string) (*domain.User, error)
	Apply(ctx context.Context, id string, deltas ...repository.Delta) error
	Delete(ctx context.Context, id string) error
}

// ClanStore is the clan persistence contract.
type ClanStore interface {
	ByID(ctx context.Context, id string) (*domain.Clan, error)
	Find(ctx context.Context, f domain.ClanFilter) ([]domain.Clan, error)
	CountByCreator(ctx context.Context, userID string) (int, error)
	ExistsNameTag(ctx context.Context, name, tag string) (bool, error)
	Insert(ctx context.Context, cl *domain.Clan) (string, error)
	Apply(ctx context.Context, id string, deltas ...repository.Delta) error
	Delete(ctx context.Context, id string) error
}

// FederationStore is the federation application persistence contract.
type FederationStore interface {
	ByID(ctx context.Context, id string) (*domain.FederationApplication, error)
	Find(ctx context.Context, f domain.ApplicationFilter) ([]domain.FederationApplication, error)
	CountActiveForClan(ctx context.Context, clanID string) (int, error)
	CountPendingBySubmitter(ctx context.Context, userID string) (int, error)
	Insert(ctx context.Context, app *domain.FederationApplication) (string, error)
	SetStatus(ctx context.Context, id string, status domain.FederationStatus) error
}

// MembershipStore is the membership application persistence contract.
type MembershipStore interface {
	ByID(ctx context.Context, id string) (*domain.MembershipApplication, error)
	Find(ctx context.Context, f domain.ApplicationFilter) ([]domain.MembershipApplication, error)
	LatestFor(ctx context.Context, clanID, userID string) (*domain.MembershipApplication, error)
	Insert(ctx context.Context, app *domain.MembershipApplication) (string, error)
	SetStatus(ctx context.Context, id string, status domain.MembershipStatus, deniedAt int64) error
}
