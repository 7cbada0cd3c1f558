package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDrawServiceWithRNG(rng func() float64) *DrawService {
	svc := NewDrawService(NewStockLedger(), NewCodeService())
	svc.rng = rng
	return svc
}

func twoPrizeCampaign() *models.Campaign {
	return &models.Campaign{
		Prizes: []models.Prize{
			{ID: "A", Name: "Coffee", AttributionMethod: models.AttributionProbability, WinProbability: 50, Quantity: 1, Remaining: 1, Status: models.PrizeStatusActive},
			{ID: "B", Name: "Croissant", AttributionMethod: models.AttributionProbability, WinProbability: 50, Quantity: 1, Remaining: 1, Status: models.PrizeStatusActive},
		},
		Codes: []models.RedemptionCode{
			{ID: "c1", Code: "GR-2026-AAAAAA001", PrizeID: "A"},
			{ID: "c2", Code: "GR-2026-BBBBBB001", PrizeID: "B"},
		},
	}
}

func TestDrawSelectsFirstPrizeAtLowRoll(t *testing.T) {
	svc := newDrawServiceWithRNG(func() float64 { return 0.3 }) // r = 30
	campaign := twoPrizeCampaign()

	result, err := svc.Draw(campaign, time.Now(), "alice")
	require.NoError(t, err)

	require.True(t, result.Won)
	assert.Equal(t, models.OutcomeWin, result.Outcome)
	require.NotNil(t, result.Prize)
	assert.Equal(t, "A", result.Prize.ID)
	assert.Equal(t, 0, result.Prize.Remaining)
	assert.Equal(t, models.PrizeStatusDepleted, result.Prize.Status)

	// The catalog copy reflects the consumption exactly once.
	assert.Equal(t, 0, campaign.Prizes[0].Remaining)
	assert.Equal(t, 1, campaign.Prizes[1].Remaining)

	require.NotNil(t, result.Code)
	assert.Equal(t, "A", result.Code.PrizeID)
	assert.True(t, result.Code.IsUsed)
	assert.Equal(t, "alice", result.Code.UsedBy)
	assert.True(t, campaign.Codes[0].IsUsed, "pool copy updated")
	assert.False(t, campaign.Codes[1].IsUsed)
}

func TestDrawSelectsSecondPrizeAtHighRoll(t *testing.T) {
	svc := newDrawServiceWithRNG(func() float64 { return 0.9 }) // r = 90
	campaign := twoPrizeCampaign()

	result, err := svc.Draw(campaign, time.Now(), "bob")
	require.NoError(t, err)

	require.True(t, result.Won)
	assert.Equal(t, "B", result.Prize.ID)
	assert.Equal(t, 0, campaign.Prizes[1].Remaining)
	assert.Equal(t, 1, campaign.Prizes[0].Remaining)
}

func TestDrawLosesWhenRollExceedsTotalProbability(t *testing.T) {
	svc := newDrawServiceWithRNG(func() float64 { return 0.85 }) // r = 85
	campaign := &models.Campaign{
		Prizes: []models.Prize{
			{ID: "A", AttributionMethod: models.AttributionProbability, WinProbability: 30, Quantity: 1, Remaining: 1},
			{ID: "B", AttributionMethod: models.AttributionProbability, WinProbability: 30, Quantity: 1, Remaining: 1},
		},
	}

	result, err := svc.Draw(campaign, time.Now(), "carol")
	require.NoError(t, err)

	assert.False(t, result.Won)
	assert.Equal(t, models.OutcomeProbabilityLoss, result.Outcome)
	assert.Nil(t, result.Prize)
	assert.Equal(t, 1, campaign.Prizes[0].Remaining)
	assert.Equal(t, 1, campaign.Prizes[1].Remaining)
}

func TestDrawWithNoEligiblePrizes(t *testing.T) {
	svc := newDrawServiceWithRNG(func() float64 { return 0.0 })
	campaign := &models.Campaign{
		Prizes: []models.Prize{
			{ID: "A", AttributionMethod: models.AttributionProbability, WinProbability: 100, Quantity: 1, Remaining: 0},
		},
	}

	result, err := svc.Draw(campaign, time.Now(), "dave")
	require.NoError(t, err)

	assert.False(t, result.Won)
	assert.Equal(t, models.OutcomeNoEligiblePrizes, result.Outcome)
}

func TestDrawCalendarPrizeTakesPrecedence(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 15, 0, 0, time.Local)
	campaign := &models.Campaign{
		Prizes: []models.Prize{
			{ID: "prob", AttributionMethod: models.AttributionProbability, WinProbability: 100, Quantity: 10, Remaining: 10},
			{
				ID:                "cal",
				AttributionMethod: models.AttributionCalendar,
				CalendarDate:      "2026-06-01",
				CalendarTime:      "12:00",
				TimeWindowMinutes: 30,
				Quantity:          1,
				Remaining:         1,
			},
		},
		Codes: []models.RedemptionCode{
			{ID: "c1", Code: "GR-2026-PPPPPP001", PrizeID: "prob"},
			{ID: "c2", Code: "GR-2026-CCCCCC001", PrizeID: "cal"},
		},
	}

	// Even a roll that would certainly pick the probability prize loses to
	// the open calendar window.
	svc := newDrawServiceWithRNG(func() float64 { return 0.0 })

	result, err := svc.Draw(campaign, now, "erin")
	require.NoError(t, err)
	require.True(t, result.Won)
	assert.Equal(t, "cal", result.Prize.ID)

	// Outside the window the calendar prize is out of the running entirely.
	campaign2 := &models.Campaign{
		Prizes: append([]models.Prize{}, campaign.Prizes...),
		Codes: []models.RedemptionCode{
			{ID: "c3", Code: "GR-2026-PPPPPP002", PrizeID: "prob"},
		},
	}
	campaign2.Prizes[1].Remaining = 1

	result2, err := svc.Draw(campaign2, now.Add(time.Hour), "erin")
	require.NoError(t, err)
	require.True(t, result2.Won)
	assert.Equal(t, "prob", result2.Prize.ID)
}

func TestDrawDegradesToLossWhenCodePoolExhausted(t *testing.T) {
	svc := newDrawServiceWithRNG(func() float64 { return 0.1 })
	campaign := &models.Campaign{
		Prizes: []models.Prize{
			{ID: "A", AttributionMethod: models.AttributionProbability, WinProbability: 100, Quantity: 2, Remaining: 2},
		},
		Codes: []models.RedemptionCode{
			{ID: "c1", Code: "GR-2026-USEDUP001", PrizeID: "A", IsUsed: true},
		},
	}

	result, err := svc.Draw(campaign, time.Now(), "frank")
	require.NoError(t, err)

	assert.False(t, result.Won)
	assert.Equal(t, models.OutcomeCodePoolExhausted, result.Outcome,
		"degraded loss must be distinguishable from a probabilistic one")
	assert.Equal(t, 2, campaign.Prizes[0].Remaining, "stock is not consumed on a degraded loss")
}

func TestDrawConvergesToConfiguredProbabilities(t *testing.T) {
	if testing.Short() {
		t.Skip("sampling test")
	}

	src := rand.New(rand.NewSource(42))
	svc := newDrawServiceWithRNG(src.Float64)

	const n = 20000
	wins := map[string]int{}
	losses := 0
	for i := 0; i < n; i++ {
		campaign := &models.Campaign{
			Prizes: []models.Prize{
				{ID: "A", AttributionMethod: models.AttributionProbability, WinProbability: 30, Quantity: 1, Remaining: 1},
				{ID: "B", AttributionMethod: models.AttributionProbability, WinProbability: 20, Quantity: 1, Remaining: 1},
			},
			Codes: []models.RedemptionCode{
				{ID: "ca", Code: "GR-2026-AAAAAA001", PrizeID: "A"},
				{ID: "cb", Code: "GR-2026-BBBBBB001", PrizeID: "B"},
			},
		}
		result, err := svc.Draw(campaign, time.Now(), "gina")
		require.NoError(t, err)
		if result.Won {
			wins[result.Prize.ID]++
		} else {
			losses++
		}
	}

	assert.InDelta(t, 0.30, float64(wins["A"])/n, 0.02)
	assert.InDelta(t, 0.20, float64(wins["B"])/n, 0.02)
	assert.InDelta(t, 0.50, float64(losses)/n, 0.02)
}
