package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neroduckale/TestifyBoyfriend/internal/adapters/rest"
	"github.com/neroduckale/TestifyBoyfriend/internal/adapters/store"
	"github.com/neroduckale/TestifyBoyfriend/internal/app"
	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

type handlers struct {
	engine   *app.Engine
	roster   core.Roster
	settings *store.SettingsProvider
}

type actionRequest struct {
	DurationSeconds int64  `json:"duration_seconds"`
	Actor           string `json:"actor" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
}

// replyError maps the engine's error taxonomy onto HTTP statuses:
// validation rejections are the caller's problem, invariant violations
// and transient platform failures are ours.
func replyError(c *gin.Context, err error) {
	switch {
	case core.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case core.IsInvariant(err):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, rest.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func (h *handlers) mute(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor or reason"})
		return
	}
	guild := domain.GuildID(c.Param("guild"))
	user := domain.UserID(c.Param("user"))

	m, err := h.roster.FetchMember(c.Request.Context(), guild, user)
	if err != nil {
		replyError(c, err)
		return
	}
	d := time.Duration(req.DurationSeconds) * time.Second
	if err := h.engine.Mute(c.Request.Context(), guild, m, d, domain.UserID(req.Actor), req.Reason); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "muted"})
}

func (h *handlers) unmute(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor or reason"})
		return
	}
	guild := domain.GuildID(c.Param("guild"))
	user := domain.UserID(c.Param("user"))

	m, err := h.roster.FetchMember(c.Request.Context(), guild, user)
	if err != nil {
		replyError(c, err)
		return
	}
	if err := h.engine.Unmute(c.Request.Context(), guild, m, domain.UserID(req.Actor), req.Reason); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unmuted"})
}

func (h *handlers) ban(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor or reason"})
		return
	}
	guild := domain.GuildID(c.Param("guild"))
	user := domain.UserID(c.Param("user"))
	d := time.Duration(req.DurationSeconds) * time.Second
	if err := h.engine.Ban(c.Request.Context(), guild, user, d, domain.UserID(req.Actor), req.Reason); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "banned"})
}

func (h *handlers) unban(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor or reason"})
		return
	}
	guild := domain.GuildID(c.Param("guild"))
	user := domain.UserID(c.Param("user"))
	if err := h.engine.Unban(c.Request.Context(), guild, user, domain.UserID(req.Actor), req.Reason); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unbanned"})
}

func (h *handlers) record(c *gin.Context) {
	guild := domain.GuildID(c.Param("guild"))
	user := domain.UserID(c.Param("user"))
	c.JSON(http.StatusOK, h.engine.Record(guild, user))
}

type settingsRequest struct {
	MuteRole             string `json:"mute_role"`
	RemoveRolesOnMute    bool   `json:"remove_roles_on_mute"`
	RestoreRolesOnRejoin bool   `json:"restore_roles_on_rejoin"`
}

func (h *handlers) putSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings"})
		return
	}
	guild := domain.GuildID(c.Param("guild"))
	cfg := domain.GuildSettings{
		MuteRole:             domain.RoleID(req.MuteRole),
		RemoveRolesOnMute:    req.RemoveRolesOnMute,
		RestoreRolesOnRejoin: req.RestoreRolesOnRejoin,
	}
	if err := h.settings.Save(c.Request.Context(), guild, cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
