package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/app/orch"
	"github.com/dkeye/Lobby/internal/domain"
)

type handlers struct {
	orch *orch.Orchestrator
}

type ProfileRequest struct {
	Name string `json:"name"`
}

type VisibilityRequest struct {
	Visible *bool `json:"visible"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.orch.Registry.Len(),
		"rooms":    h.orch.Rooms.Len(),
	})
}

// GET /api/profile returns the display name remembered for this browser.
func (h *handlers) getProfile(c *gin.Context) {
	name, _ := sessions.Default(c).Get(profileKey).(string)
	c.JSON(http.StatusOK, gin.H{"name": name})
}

// PUT /api/profile remembers a display name for the next connect.
func (h *handlers) putProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	user, err := domain.NewUser(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.Reason(err)})
		return
	}
	s := sessions.Default(c)
	s.Set(profileKey, user.Username)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": user.Username})
}

// GET /api/rooms lists the public directory.
func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *handlers) getRoom(c *gin.Context) {
	room, ok := h.orch.Rooms.GetRoom(domain.RoomName(c.Param("name")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.Reason(domain.ErrRoomNotFound)})
		return
	}
	c.JSON(http.StatusOK, room.Info())
}

func (h *handlers) roomMembers(c *gin.Context) {
	room, ok := h.orch.Rooms.GetRoom(domain.RoomName(c.Param("name")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.Reason(domain.ErrRoomNotFound)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": room.MembersSnapshot()})
}

// POST /api/rooms/:name/close stops new joins; members already inside stay.
func (h *handlers) closeRoom(c *gin.Context) {
	if err := h.orch.CloseRoom(domain.RoomName(c.Param("name"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) roomVisibility(c *gin.Context) {
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Visible == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	if err := h.orch.MarkVisible(domain.RoomName(c.Param("name")), *req.Visible); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, domain.ErrRoomNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": domain.Reason(err)})
}
