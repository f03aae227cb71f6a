package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clanhub.gg/clanhub/internal/api/middleware"
	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
)

// Application endpoints share their wire shapes between the federation and
// membership workflows.

type applyRequest struct {
	ClanID string `json:"clan_id"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func applicationFilter(c *gin.Context) domain.ApplicationFilter {
	return domain.ApplicationFilter{
		IDs:         listParam(c, "ids"),
		SubmittedBy: listParam(c, "submitted_by"),
		ClanIDs:     listParam(c, "clan_ids"),
		Statuses:    listParam(c, "statuses"),
	}
}

// GetFederationApplication handles GET /api/clan/application/get/:id (public).
func (s *Server) GetFederationApplication(c *gin.Context) {
	app, err := s.federations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetFederationApplications handles GET /api/clan/application/get-many (public).
func (s *Server) GetFederationApplications(c *gin.Context) {
	apps, err := s.federations.List(c.Request.Context(), applicationFilter(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// ApplyFederation handles POST /api/clan/application/apply.
func (s *Server) ApplyFederation(c *gin.Context) {
	var in applyRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	app, err := s.federations.Apply(c.Request.Context(), middleware.Actor(c), in.ClanID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// PullFederationApplication handles PUT /api/clan/application/pull-application/:id.
func (s *Server) PullFederationApplication(c *gin.Context) {
	app, err := s.federations.Pull(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ChangeFederationStatus handles PUT /api/clan/application/change-status/:id (admin).
func (s *Server) ChangeFederationStatus(c *gin.Context) {
	var in changeStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	app, err := s.federations.ChangeStatus(c.Request.Context(), middleware.Actor(c),
		c.Param("id"), domain.FederationStatus(in.Status))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetMembershipApplication handles GET /api/clan/member/application/get/:id (public).
func (s *Server) GetMembershipApplication(c *gin.Context) {
	app, err := s.memberships.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetMembershipApplications handles GET /api/clan/member/application/get-many (public).
func (s *Server) GetMembershipApplications(c *gin.Context) {
	apps, err := s.memberships.List(c.Request.Context(), applicationFilter(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// ApplyMembership handles POST /api/clan/member/application/apply.
func (s *Server) ApplyMembership(c *gin.Context) {
	var in applyRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	app, err := s.memberships.Apply(c.Request.Context(), middleware.Actor(c), in.ClanID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// PullMembershipApplication handles PUT /api/clan/member/application/pull-application/:id.
func (s *Server) PullMembershipApplication(c *gin.Context) {
	app, err := s.memberships.Pull(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ChangeMembershipStatus handles PUT /api/clan/member/application/change-status/:id.
func (s *Server) ChangeMembershipStatus(c *gin.Context) {
	var in changeStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	app, err := s.memberships.ChangeStatus(c.Request.Context(), middleware.Actor(c),
		c.Param("id"), domain.MembershipStatus(in.Status))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}
