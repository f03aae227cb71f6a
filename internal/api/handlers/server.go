// Package handlers implements the HTTP endpoints of the clan hub.
//
// Handlers bind and validate wire payloads, delegate to the services, and
// push failures to the centralized ErrorHandler middleware via c.Error().
package handlers

import (
	"clanhub.gg/clanhub/internal/auth"
	"clanhub.gg/clanhub/internal/infrastructure"
	"clanhub.gg/clanhub/internal/service"
)

// Server holds the handler dependencies. Manual DI, no wire.
type Server struct {
	users       *service.UserService
	clans       *service.ClanService
	federations *service.FederationService
	memberships *service.MembershipService

	tokens  *auth.TokenManager
	discord *auth.DiscordClient
	db      *infrastructure.Database

	loginRedirectURL string
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Users       *service.UserService
	Clans       *service.ClanService
	Federations *service.FederationService
	Memberships *service.MembershipService

	Tokens  *auth.TokenManager
	Discord *auth.DiscordClient
	DB      *infrastructure.Database

	// LoginRedirectURL, when set, receives the issued token as a query
	// parameter after the OAuth callback instead of a JSON body.
	LoginRedirectURL string
}

// NewServer creates a Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		users:            deps.Users,
		clans:            deps.Clans,
		federations:      deps.Federations,
		memberships:      deps.Memberships,
		tokens:           deps.Tokens,
		discord:          deps.Discord,
		db:               deps.DB,
		loginRedirectURL: deps.LoginRedirectURL,
	}
}
