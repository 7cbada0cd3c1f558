package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/reviewplay/campaign-backend/internal/models"
	"golang.org/x/exp/slog"
)

// DrawService decides, for one participant session, whether the participant
// wins and which prize and redemption code they receive. A session must call
// Draw at most once; re-invoking for the same session double-consumes stock
// and is guarded by the gate layer, not here.
type DrawService struct {
	ledger *StockLedger
	codes  *CodeService

	// rng returns a uniform value in [0,1). Injectable so the weighted walk
	// can be pinned in tests.
	rng func() float64
}

// NewDrawService creates a DrawService using the default random source.
func NewDrawService(ledger *StockLedger, codes *CodeService) *DrawService {
	return &DrawService{
		ledger: ledger,
		codes:  codes,
		rng:    rand.Float64,
	}
}

// Draw evaluates the campaign's prize catalog at the reference time and
// returns the result. On a win it consumes one unit of stock and flips one
// code to used, in place on the caller's campaign copy, exactly once.
//
// Selection policy:
//   - Calendar prizes whose window is open take precedence and win
//     deterministically, ties broken by catalog order (first match wins).
//   - Otherwise a uniform r in [0,100) walks the probability prizes in
//     catalog order, accumulating winProbability; the first prize with
//     r <= cumulative wins. Probabilities need not sum to 100: the
//     remainder is implicit no-win mass.
func (s *DrawService) Draw(campaign *models.Campaign, now time.Time, participantID string) (models.DrawResult, error) {
	var eligible []int
	for i := range campaign.Prizes {
		if s.ledger.IsEligible(campaign.Prizes[i], now) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		slog.Info("Draw found no eligible prizes", "campaignId", campaign.ID, "participant", participantID)
		return models.DrawResult{Won: false, Outcome: models.OutcomeNoEligiblePrizes}, nil
	}

	winnerIdx := -1
	for _, i := range eligible {
		if campaign.Prizes[i].AttributionMethod == models.AttributionCalendar {
			winnerIdx = i
			break
		}
	}

	if winnerIdx < 0 {
		r := s.rng() * 100
		cumulative := 0.0
		for _, i := range eligible {
			p := campaign.Prizes[i]
			if p.AttributionMethod != models.AttributionProbability {
				continue
			}
			cumulative += p.WinProbability
			if r <= cumulative {
				winnerIdx = i
				break
			}
		}
		if winnerIdx < 0 {
			return models.DrawResult{Won: false, Outcome: models.OutcomeProbabilityLoss}, nil
		}
	}

	prize := campaign.Prizes[winnerIdx]

	code, ok := s.codes.FindAvailable(campaign.Codes, prize.ID)
	if !ok {
		// Stock says winnable but the pre-provisioned pool is empty. The
		// participant sees an ordinary loss; the outcome tag and this log line
		// are what lets operators notice and replenish.
		slog.Warn("Winning prize has no available redemption code, degrading to loss",
			"campaignId", campaign.ID, "prizeId", prize.ID, "remaining", prize.Remaining)
		return models.DrawResult{Won: false, Outcome: models.OutcomeCodePoolExhausted}, nil
	}

	reserved, err := s.ledger.Reserve(prize, now)
	if err != nil {
		return models.DrawResult{}, fmt.Errorf("reserve stock for prize %s: %w", prize.ID, err)
	}
	used := s.codes.MarkUsed(code, participantID)

	campaign.Prizes[winnerIdx] = reserved
	for i := range campaign.Codes {
		if campaign.Codes[i].ID == used.ID {
			campaign.Codes[i] = used
			break
		}
	}

	slog.Info("Draw won", "campaignId", campaign.ID, "prizeId", reserved.ID,
		"remaining", reserved.Remaining, "code", used.Code, "participant", participantID)

	wonPrize := reserved
	wonCode := used
	return models.DrawResult{
		Won:     true,
		Outcome: models.OutcomeWin,
		Prize:   &wonPrize,
		Code:    &wonCode,
	}, nil
}
