package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clanhub.gg/clanhub/internal/api/middleware"
	apperrors "clanhub.gg/clanhub/internal/pkg/errors"
	"clanhub.gg/clanhub/internal/service"
)

// GetUser handles GET /api/user/get/:discord_id (public).
func (s *Server) GetUser(c *gin.Context) {
	user, err := s.users.Get(c.Request.Context(), c.Param("discord_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUsers handles GET /api/user/get-many (public).
func (s *Server) GetUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context(), service.ListUsersInput{
		Search:     listParam(c, "search"),
		Clans:      listParam(c, "clans"),
		DiscordIDs: listParam(c, "discord_ids"),
		IDs:        listParam(c, "ids"),
		Roles:      listParam(c, "roles"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Me handles GET /api/user/@me.
func (s *Server) Me(c *gin.Context) {
	user, err := s.users.Me(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /api/user/create (admin).
func (s *Server) CreateUser(c *gin.Context) {
	var in service.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	user, err := s.users.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PATCH /api/user/update/:discord_id.
func (s *Server) UpdateUser(c *gin.Context) {
	var in service.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}
	user, err := s.users.Update(c.Request.Context(), middleware.Actor(c), c.Param("discord_id"), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/user/delete/:discord_id.
func (s *Server) DeleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), middleware.Actor(c), c.Param("discord_id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// BanUser handles PUT /api/user/ban/:discord_id.
func (s *Server) BanUser(c *gin.Context) {
	s.setBanned(c, true)
}

// UnbanUser handles PUT /api/user/unban/:discord_id.
func (s *Server) UnbanUser(c *gin.Context) {
	s.setBanned(c, false)
}

func (s *Server) setBanned(c *gin.Context, banned bool) {
	user, err := s.users.SetBanned(c.Request.Context(), middleware.Actor(c), c.Param("discord_id"), banned)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
