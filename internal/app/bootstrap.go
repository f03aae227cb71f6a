// Package app is the composition root: bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"clanhub.gg/clanhub/internal/api/handlers"
	"clanhub.gg/clanhub/internal/auth"
	"clanhub.gg/clanhub/internal/config"
	"clanhub.gg/clanhub/internal/infrastructure"
	"clanhub.gg/clanhub/internal/pkg/worker"
	"clanhub.gg/clanhub/internal/repository/mongostore"
	"clanhub.gg/clanhub/internal/service"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.Database
	Pool   *worker.Pool
}

// Bootstrap initializes all dependencies with manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabase(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	pool, err := worker.New(ctx, cfg.Worker.PoolSize)
	if err != nil {
		_ = db.Close(context.Background())
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	users := mongostore.NewUsers(db)
	clans := mongostore.NewClans(db)
	federations := mongostore.NewFederationApplications(db)
	memberships := mongostore.NewMembershipApplications(db)

	clanSvc := service.NewClanService(clans, users, pool)
	userSvc := service.NewUserService(users, clans)
	federationSvc := service.NewFederationService(federations, clans)
	membershipSvc := service.NewMembershipService(memberships, clans, clanSvc)

	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTExpiry)
	discord := auth.NewDiscordClient(cfg.Discord.ClientID, cfg.Discord.ClientSecret, cfg.Discord.RedirectURL)

	server := handlers.NewServer(handlers.ServerDeps{
		Users:            userSvc,
		Clans:            clanSvc,
		Federations:      federationSvc,
		Memberships:      membershipSvc,
		Tokens:           tokens,
		Discord:          discord,
		DB:               db,
		LoginRedirectURL: cfg.Discord.LoginRedirectURL,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(cfg, server, tokens, users),
		DB:     db,
		Pool:   pool,
	}, nil
}

// Shutdown releases the worker pool and the store connection.
func (a *Application) Shutdown() {
	if a.Pool != nil {
		a.Pool.Shutdown()
	}
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.DB.Close(ctx)
	}
}
