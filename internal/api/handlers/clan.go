package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clanhub.gg/clanhub/internal/api/middleware"
	"clanhub.gg/clanhub/internal/domain"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
	"clanhub.gg/clanhub/internal/service"
)

// GetClan handles GET /api/clan/get/:clan_id (public).
func (s *Server) GetClan(c *gin.Context) {
	clan, err := s.clans.Get(c.Request.Context(), c.Param("clan_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clan)
}

// GetClans handles GET /api/clan/get-many (public).
func (s *Server) GetClans(c *gin.Context) {
	f := domain.ClanFilter{
		Names:      listParam(c, "names"),
		Tags:       listParam(c, "tags"),
		IDs:        listParam(c, "ids"),
		Owners:     listParam(c, "owners"),
		Categories: listParam(c, "categories"),
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "'approved' must be a boolean"))
			return
		}
		f.Approved = &approved
	}

	clans, err := s.clans.List(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clans)
}

// CreateClan handles POST /api/clan/create.
func (s *Server) CreateClan(c *gin.Context) {
	var in service.CreateClanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	clan, err := s.clans.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, clan)
}

// UpdateClan handles PATCH /api/clan/update/:clan_id.
func (s *Server) UpdateClan(c *gin.Context) {
	var in service.UpdateClanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	clan, err := s.clans.Update(c.Request.Context(), middleware.Actor(c), c.Param("clan_id"), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clan)
}

// UpvoteClan handles PUT /api/clan/upvote/:clan_id.
func (s *Server) UpvoteClan(c *gin.Context) {
	s.rate(c, domain.RatingUp)
}

// DownvoteClan handles PUT /api/clan/downvote/:clan_id.
func (s *Server) DownvoteClan(c *gin.Context) {
	s.rate(c, domain.RatingDown)
}

func (s *Server) rate(c *gin.Context, dir domain.RatingDirection) {
	clan, err := s.clans.Rate(c.Request.Context(), middleware.Actor(c), c.Param("clan_id"), dir)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clan)
}

// TransferOwnership handles PUT /api/clan/transfer-ownership.
func (s *Server) TransferOwnership(c *gin.Context) {
	var in service.TransferOwnershipInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	clan, err := s.clans.TransferOwnership(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clan)
}

// DeleteClan handles DELETE /api/clan/delete/:clan_id.
func (s *Server) DeleteClan(c *gin.Context) {
	if err := s.clans.Delete(c.Request.Context(), middleware.Actor(c), c.Param("clan_id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "clan deleted"})
}
