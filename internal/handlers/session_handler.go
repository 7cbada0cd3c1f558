package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reviewplay/campaign-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionHandler exposes the participant gate over HTTP. Every mutation maps
// to one named gate event; state is otherwise read-only to the UI.
type SessionHandler struct {
	gate *services.GateService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(gate *services.GateService) *SessionHandler {
	return &SessionHandler{gate: gate}
}

// CreateSessionRequest identifies the participant starting the flow.
type CreateSessionRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// CreateSession handles POST /campaigns/:id/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign ID format"})
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.gate.CreateSession(c.Request.Context(), campaignID, req.ParticipantID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// GetSession handles GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	snapshot, err := h.gate.Snapshot(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// CloseInstructions handles POST /sessions/:id/close-instructions
func (h *SessionHandler) CloseInstructions(c *gin.Context) {
	h.apply(c, services.EventCloseInstructions{})
}

// RatingRequest carries a star rating.
type RatingRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// SelectRating handles POST /sessions/:id/rating
func (h *SessionHandler) SelectRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.apply(c, services.EventSelectRating{Rating: req.Rating})
}

// CloseNegativeModal handles POST /sessions/:id/negative-review/close
func (h *SessionHandler) CloseNegativeModal(c *gin.Context) {
	h.apply(c, services.EventCloseNegativeModal{})
}

// NegativeReviewRequest carries the feedback left instead of a public review.
type NegativeReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Stars int    `json:"stars" binding:"required,min=1,max=5"`
}

// SubmitNegativeReview handles POST /sessions/:id/negative-review
func (h *SessionHandler) SubmitNegativeReview(c *gin.Context) {
	var req NegativeReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.apply(c, services.EventSubmitNegativeReview{Text: req.Text, Stars: req.Stars})
}

// UpgradeRating handles POST /sessions/:id/upgrade-rating
func (h *SessionHandler) UpgradeRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.apply(c, services.EventUpgradeRating{Rating: req.Rating})
}

// Play handles POST /sessions/:id/play — the single draw trigger.
func (h *SessionHandler) Play(c *gin.Context) {
	snapshot, err := h.gate.Play(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, services.ErrAlreadyPlayed):
			c.JSON(http.StatusConflict, gin.H{"error": "This session has already played"})
		case errors.Is(err, services.ErrGameLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "The game is not unlocked yet"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to play: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Reset handles POST /sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	h.apply(c, services.EventReset{})
}

// DeleteSession handles DELETE /sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	h.gate.RemoveSession(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) apply(c *gin.Context, event services.GateEvent) {
	snapshot, err := h.gate.Apply(c.Param("id"), event)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, services.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
