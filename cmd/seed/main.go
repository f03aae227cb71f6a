// Package main seeds a fresh document store with the developer profile
// and a demo clan. Safe to run repeatedly; existing documents are left
// untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"clanhub.gg/clanhub/internal/config"
	"clanhub.gg/clanhub/internal/domain"
	"clanhub.gg/clanhub/internal/infrastructure"
	"clanhub.gg/clanhub/internal/pkg/logger"
	"clanhub.gg/clanhub/internal/repository"
	"clanhub.gg/clanhub/internal/repository/mongostore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.NewDatabase(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close(ctx)

	logger.Info("Starting data seeding...")

	users := mongostore.NewUsers(db)
	clans := mongostore.NewClans(db)

	dev, err := seedDeveloper(ctx, users, cfg.Auth.DeveloperDiscordID)
	if err != nil {
		return fmt.Errorf("seed developer: %w", err)
	}

	if err := seedDemoClan(ctx, clans, users, dev); err != nil {
		return fmt.Errorf("seed demo clan: %w", err)
	}

	logger.Info("Data seeding completed successfully")
	return nil
}

// seedDeveloper creates the developer profile so the escape-hatch
// identity exists before the first OAuth login. Without a configured
// developer id the step is skipped.
func seedDeveloper(ctx context.Context, users *mongostore.Users, discordID string) (*domain.User, error) {
	if discordID == "" {
		logger.Info("No developer discord id configured, skipping developer seed")
		return nil, nil
	}

	existing, err := users.ByDiscordID(ctx, discordID)
	if err == nil {
		logger.Info("Developer already exists, skipping",
			zap.String("discord_id", discordID),
		)
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	dev := &domain.User{
		DiscordID:   discordID,
		Username:    "developer",
		Role:        domain.RoleAdmin,
		Avatar:      domain.DefaultAvatarURL,
		Socials:     []domain.SocialLink{},
		JoinedClans: []string{},
	}
	if _, err := users.Insert(ctx, dev); err != nil {
		return nil, err
	}

	logger.Info("Seeded developer user",
		zap.String("discord_id", discordID),
		zap.String("id", dev.ID),
	)
	return dev, nil
}

// seedDemoClan registers one approved clan owned by the developer so a
// fresh deployment has browsable content.
func seedDemoClan(ctx context.Context, clans *mongostore.Clans, users *mongostore.Users, dev *domain.User) error {
	if dev == nil {
		logger.Info("No developer user, skipping demo clan seed")
		return nil
	}

	const (
		name = "Hub Staff"
		tag  = "STAFF"
	)

	exists, err := clans.ExistsNameTag(ctx, name, tag)
	if err != nil {
		return err
	}
	if exists {
		logger.Info("Demo clan already exists, skipping", zap.String("name", name))
		return nil
	}

	clan := demoClan(name, tag, dev.ID)
	if _, err := clans.Insert(ctx, clan); err != nil {
		return err
	}

	err = users.Apply(ctx, dev.ID, repository.AddToSet("joined_clans", clan.ID))
	if err != nil {
		return fmt.Errorf("link developer to demo clan: %w", err)
	}

	logger.Info("Seeded demo clan",
		zap.String("name", name),
		zap.String("id", clan.ID),
	)
	return nil
}

func demoClan(name, tag, creatorID string) *domain.Clan {
	return &domain.Clan{
		Name:            name,
		Tag:             tag,
		Description:     "Official staff clan for the community hub.",
		Owners:          []string{creatorID},
		Members:         []string{creatorID},
		Socials:         []domain.SocialLink{},
		Categories:      []string{domain.CategoryEverything},
		MemberCount:     1,
		PositiveRatings: []string{},
		NegativeRatings: []string{},
		Approved:        true,
		CreatedBy:       creatorID,
	}
}
