package models

// DrawOutcome tags how a draw concluded. The participant-facing result only
// distinguishes win from loss; the outcome tag exists so operators can tell a
// true probabilistic loss apart from a degraded one (eligible prize but an
// exhausted code pool).
type DrawOutcome string

const (
	OutcomeWin               DrawOutcome = "WIN"
	OutcomeNoEligiblePrizes  DrawOutcome = "NO_ELIGIBLE_PRIZES"
	OutcomeProbabilityLoss   DrawOutcome = "PROBABILITY_LOSS"
	OutcomeCodePoolExhausted DrawOutcome = "CODE_POOL_EXHAUSTED"
)

// DrawResult is the outcome of a single draw evaluation. Ephemeral: produced
// once per session and held only by that session's gate state.
type DrawResult struct {
	Won     bool            `json:"won"`
	Outcome DrawOutcome     `json:"outcome"`
	Prize   *Prize          `json:"prize,omitempty"`
	Code    *RedemptionCode `json:"code,omitempty"`
}
