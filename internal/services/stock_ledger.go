package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/reviewplay/campaign-backend/internal/models"
)

// ErrNoStock is returned when Reserve is called on a prize whose stock is
// already exhausted. Eligibility filtering upstream is supposed to make this
// unreachable; hitting it is a programming error, not a business outcome.
var ErrNoStock = errors.New("prize has no remaining stock")

// StockLedger enforces the consistency rules around prize stock. All of its
// operations are pure: callers replace their copy of the prize with the
// returned one, nothing is mutated in place.
type StockLedger struct{}

// NewStockLedger creates a StockLedger.
func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// IsEligible reports whether a prize can be won at the reference time:
// it must have stock remaining, its derived status must be active, and a
// calendar prize must be inside its window.
func (l *StockLedger) IsEligible(prize models.Prize, now time.Time) bool {
	if prize.Remaining <= 0 {
		return false
	}
	if prize.ComputeStatus(now) != models.PrizeStatusActive {
		return false
	}
	if prize.AttributionMethod == models.AttributionCalendar {
		return prize.WindowContains(now)
	}
	return true
}

// Reserve consumes one unit of stock after a win has been decided, returning
// the updated prize with its status recomputed. It must never be called
// speculatively. Remaining never goes negative: reserving at zero fails.
func (l *StockLedger) Reserve(prize models.Prize, now time.Time) (models.Prize, error) {
	if prize.Remaining <= 0 {
		return prize, fmt.Errorf("reserve %s: %w", prize.ID, ErrNoStock)
	}
	prize.Remaining--
	prize.Status = prize.ComputeStatus(now)
	prize.UpdatedAt = now
	return prize, nil
}
