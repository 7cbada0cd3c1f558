package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/reviewplay/campaign-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

var (
	// ErrPrizeNotFound is returned when a prize ID does not exist in the
	// campaign's catalog.
	ErrPrizeNotFound = errors.New("prize not found")
	// ErrCodeUsed is returned when an operation would delete a used code.
	// Used codes are immutable: they can never be deleted or re-issued.
	ErrCodeUsed = errors.New("redemption code has already been used")
	// ErrInvalidPrize is returned when prize fields fail validation.
	ErrInvalidPrize = errors.New("invalid prize")
)

// CampaignService covers the operator surface of the engine: catalog edits,
// code provisioning, CSV round-trips, verification and stats. Draws never go
// through here; they go through the gate service.
type CampaignService struct {
	campaigns repositories.CampaignRepository
	codes     *CodeService
}

// NewCampaignService creates a CampaignService.
func NewCampaignService(campaigns repositories.CampaignRepository, codes *CodeService) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		codes:     codes,
	}
}

// CreateCampaign stores a new campaign with sensible gate defaults.
func (s *CampaignService) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}
	if campaign.Gate.CodePrefix == "" {
		campaign.Gate.CodePrefix = DefaultCodePrefix
	}
	if campaign.Gate.TimerSeconds <= 0 {
		campaign.Gate.TimerSeconds = defaultTimerSeconds
	}
	if campaign.Gate.RatingThreshold <= 0 {
		campaign.Gate.RatingThreshold = defaultRatingThreshold
	}
	if campaign.Prizes == nil {
		campaign.Prizes = []models.Prize{}
	}
	if campaign.Codes == nil {
		campaign.Codes = []models.RedemptionCode{}
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	slog.Info("Campaign created", "campaignId", campaign.ID, "name", campaign.Name)
	return nil
}

// GetCampaign loads one campaign.
func (s *CampaignService) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return s.campaigns.FindByID(ctx, id)
}

// ListCampaigns returns all campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	return s.campaigns.FindAll(ctx)
}

// DeleteCampaign removes a campaign outright.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id primitive.ObjectID) error {
	return s.campaigns.Delete(ctx, id)
}

// AddPrize validates and appends a prize to the catalog. Remaining starts at
// Quantity; status is derived, never taken from the caller.
func (s *CampaignService) AddPrize(ctx context.Context, campaignID primitive.ObjectID, prize models.Prize) (*models.Prize, error) {
	if err := validatePrize(prize); err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}

	now := time.Now()
	prize.ID = uuid.NewString()
	prize.Remaining = prize.Quantity
	prize.Status = prize.ComputeStatus(now)
	prize.CreatedAt = now
	prize.UpdatedAt = now

	campaign.Prizes = append(campaign.Prizes, prize)
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("save campaign: %w", err)
	}
	slog.Info("Prize added", "campaignId", campaignID, "prizeId", prize.ID, "name", prize.Name)
	return &prize, nil
}

// UpdatePrize edits a prize in place. This is the manual restock path:
// remaining is clamped into [0, quantity] and the status recomputed.
func (s *CampaignService) UpdatePrize(ctx context.Context, campaignID primitive.ObjectID, prize models.Prize) (*models.Prize, error) {
	if err := validatePrize(prize); err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}

	existing := campaign.PrizeByID(prize.ID)
	if existing == nil {
		return nil, ErrPrizeNotFound
	}

	now := time.Now()
	if prize.Remaining > prize.Quantity {
		prize.Remaining = prize.Quantity
	}
	if prize.Remaining < 0 {
		prize.Remaining = 0
	}
	prize.Status = prize.ComputeStatus(now)
	prize.CreatedAt = existing.CreatedAt
	prize.UpdatedAt = now
	*existing = prize

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("save campaign: %w", err)
	}
	return existing, nil
}

// DeletePrize removes a prize and its unused codes. Prizes with used codes
// cannot be removed: the used codes must stay resolvable.
func (s *CampaignService) DeletePrize(ctx context.Context, campaignID primitive.ObjectID, prizeID string) error {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load campaign: %w", err)
	}
	if campaign.PrizeByID(prizeID) == nil {
		return ErrPrizeNotFound
	}
	for _, code := range campaign.Codes {
		if code.PrizeID == prizeID && code.IsUsed {
			return fmt.Errorf("delete prize %s: %w", prizeID, ErrCodeUsed)
		}
	}

	prizes := campaign.Prizes[:0]
	for _, p := range campaign.Prizes {
		if p.ID != prizeID {
			prizes = append(prizes, p)
		}
	}
	campaign.Prizes = prizes

	codes := campaign.Codes[:0]
	for _, c := range campaign.Codes {
		if c.PrizeID != prizeID {
			codes = append(codes, c)
		}
	}
	campaign.Codes = codes

	return s.campaigns.Update(ctx, campaign)
}

// GenerateCodes provisions a batch of codes for a prize using the campaign's
// configured prefix and appends them to the pool.
func (s *CampaignService) GenerateCodes(ctx context.Context, campaignID primitive.ObjectID, prizeID string, count int) ([]models.RedemptionCode, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if campaign.PrizeByID(prizeID) == nil {
		return nil, ErrPrizeNotFound
	}

	batch := s.codes.GenerateBatch(prizeID, count, campaign.Gate.CodePrefix)
	campaign.Codes = append(campaign.Codes, batch...)
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("save campaign: %w", err)
	}
	slog.Info("Code batch generated", "campaignId", campaignID, "prizeId", prizeID, "count", len(batch))
	return batch, nil
}

// ImportCodes parses an exported CSV and appends the reconstructed codes to
// the prize's pool. Returns how many were imported and how many rows were
// skipped as malformed.
func (s *CampaignService) ImportCodes(ctx context.Context, campaignID primitive.ObjectID, prizeID string, csvText string) (int, int, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return 0, 0, fmt.Errorf("load campaign: %w", err)
	}
	if campaign.PrizeByID(prizeID) == nil {
		return 0, 0, ErrPrizeNotFound
	}

	imported, skipped := s.codes.ImportCSV(csvText, prizeID)
	campaign.Codes = append(campaign.Codes, imported...)
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return 0, skipped, fmt.Errorf("save campaign: %w", err)
	}
	return len(imported), skipped, nil
}

// ExportCodes renders the campaign's code pool as CSV.
func (s *CampaignService) ExportCodes(ctx context.Context, campaignID primitive.ObjectID) (string, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return "", fmt.Errorf("load campaign: %w", err)
	}
	return s.codes.ExportCSV(campaign)
}

// DeleteCodes removes codes from the pool by ID. The whole batch is rejected
// if any targeted code is already used.
func (s *CampaignService) DeleteCodes(ctx context.Context, campaignID primitive.ObjectID, codeIDs []string) error {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load campaign: %w", err)
	}

	targets := make(map[string]bool, len(codeIDs))
	for _, id := range codeIDs {
		targets[id] = true
	}
	for _, code := range campaign.Codes {
		if targets[code.ID] && code.IsUsed {
			return fmt.Errorf("delete code %s: %w", code.Code, ErrCodeUsed)
		}
	}

	kept := campaign.Codes[:0]
	for _, code := range campaign.Codes {
		if !targets[code.ID] {
			kept = append(kept, code)
		}
	}
	campaign.Codes = kept

	return s.campaigns.Update(ctx, campaign)
}

// VerifyCode checks a presented code string against the campaign's pool.
func (s *CampaignService) VerifyCode(ctx context.Context, campaignID primitive.ObjectID, codeString string) (models.CodeVerification, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return models.CodeVerification{}, fmt.Errorf("load campaign: %w", err)
	}
	return s.codes.Verify(campaign, codeString), nil
}

// CodeStats aggregates code usage for the campaign.
func (s *CampaignService) CodeStats(ctx context.Context, campaignID primitive.ObjectID) (models.CodeStats, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return models.CodeStats{}, fmt.Errorf("load campaign: %w", err)
	}
	return s.codes.Stats(campaign), nil
}

func validatePrize(prize models.Prize) error {
	if prize.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPrize)
	}
	if prize.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidPrize)
	}
	switch prize.AttributionMethod {
	case models.AttributionProbability:
		if prize.WinProbability < 0 || prize.WinProbability > 100 {
			return fmt.Errorf("%w: winProbability must be within [0,100]", ErrInvalidPrize)
		}
	case models.AttributionCalendar:
		if _, ok := prize.WindowStart(); !ok {
			return fmt.Errorf("%w: calendarDate and calendarTime are required", ErrInvalidPrize)
		}
		if prize.TimeWindowMinutes <= 0 {
			return fmt.Errorf("%w: timeWindowMinutes must be > 0", ErrInvalidPrize)
		}
	default:
		return fmt.Errorf("%w: unknown attribution method %q", ErrInvalidPrize, prize.AttributionMethod)
	}
	return nil
}
