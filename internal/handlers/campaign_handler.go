package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/reviewplay/campaign-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CampaignHandler handles campaign and code administration requests
type CampaignHandler struct {
	campaigns *services.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaigns *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// CreateCampaignRequest is the payload for creating a campaign.
type CreateCampaignRequest struct {
	Name string              `json:"name" binding:"required"`
	Gate models.GateSettings `json:"gate"`
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign := &models.Campaign{
		Name: req.Name,
		Gate: req.Gate,
	}
	if email, ok := c.Get("userEmail"); ok {
		campaign.CreatedBy, _ = email.(string)
	}
	if err := h.campaigns.CreateCampaign(c.Request.Context(), campaign); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// GetCampaign handles GET /campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve campaign: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// ListCampaigns handles GET /campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.ListCampaigns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list campaigns: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// DeleteCampaign handles DELETE /campaigns/:id
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	if err := h.campaigns.DeleteCampaign(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete campaign: " + err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// AddPrize handles POST /campaigns/:id/prizes
func (h *CampaignHandler) AddPrize(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	var prize models.Prize
	if err := c.ShouldBindJSON(&prize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.campaigns.AddPrize(c.Request.Context(), id, prize)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdatePrize handles PUT /campaigns/:id/prizes/:prizeId
func (h *CampaignHandler) UpdatePrize(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	var prize models.Prize
	if err := c.ShouldBindJSON(&prize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prize.ID = c.Param("prizeId")

	updated, err := h.campaigns.UpdatePrize(c.Request.Context(), id, prize)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePrize handles DELETE /campaigns/:id/prizes/:prizeId
func (h *CampaignHandler) DeletePrize(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	if err := h.campaigns.DeletePrize(c.Request.Context(), id, c.Param("prizeId")); err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateCodesRequest asks for a batch of codes for one prize.
type GenerateCodesRequest struct {
	PrizeID string `json:"prizeId" binding:"required"`
	Count   int    `json:"count" binding:"required,min=1,max=10000"`
}

// GenerateCodes handles POST /campaigns/:id/codes/generate
func (h *CampaignHandler) GenerateCodes(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	var req GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	codes, err := h.campaigns.GenerateCodes(c.Request.Context(), id, req.PrizeID, req.Count)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"codes": codes, "count": len(codes)})
}

// ExportCodes handles GET /campaigns/:id/codes/export
func (h *CampaignHandler) ExportCodes(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	csvText, err := h.campaigns.ExportCodes(c.Request.Context(), id)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="codes.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvText))
}

// ImportCodesRequest carries a previously exported CSV for one prize.
type ImportCodesRequest struct {
	PrizeID string `json:"prizeId" binding:"required"`
	CSV     string `json:"csv" binding:"required"`
}

// ImportCodes handles POST /campaigns/:id/codes/import
func (h *CampaignHandler) ImportCodes(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	var req ImportCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imported, skipped, err := h.campaigns.ImportCodes(c.Request.Context(), id, req.PrizeID, req.CSV)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported, "skipped": skipped})
}

// DeleteCodesRequest lists code IDs to remove from the pool.
type DeleteCodesRequest struct {
	CodeIDs []string `json:"codeIds" binding:"required,min=1"`
}

// DeleteCodes handles POST /campaigns/:id/codes/delete
func (h *CampaignHandler) DeleteCodes(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	var req DeleteCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.campaigns.DeleteCodes(c.Request.Context(), id, req.CodeIDs); err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VerifyCode handles GET /campaigns/:id/codes/verify/:code
func (h *CampaignHandler) VerifyCode(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	verification, err := h.campaigns.VerifyCode(c.Request.Context(), id, c.Param("code"))
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

// CodeStats handles GET /campaigns/:id/codes/stats
func (h *CampaignHandler) CodeStats(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	stats, err := h.campaigns.CodeStats(c.Request.Context(), id)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CampaignHandler) campaignID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *CampaignHandler) writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
	case errors.Is(err, services.ErrPrizeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
	case errors.Is(err, services.ErrInvalidPrize):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCodeUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
