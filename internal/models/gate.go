package models

import (
	"time"
)

// GateStep is the current step of a participant's gated flow. The waiting
// screen shown after a redirect is GateStepGame with GameUnlocked still false;
// the step only changes when the participant moves to a different screen.
type GateStep string

const (
	GateStepIdle          GateStep = "IDLE"
	GateStepInstructions  GateStep = "INSTRUCTIONS"
	GateStepReview        GateStep = "REVIEW"
	GateStepNegativeModal GateStep = "NEGATIVE_MODAL"
	GateStepGame          GateStep = "GAME"
	GateStepResult        GateStep = "RESULT"
)

// GateState is one participant session's progress through the gate. It is
// created fresh per session and mutated only by the gate transition function,
// never by direct field assignment from outside.
type GateState struct {
	Step GateStep `json:"step"`

	SelectedRating      int    `json:"selectedRating,omitempty"`
	NegativeReviewText  string `json:"negativeReviewText,omitempty"`
	NegativeReviewStars int    `json:"negativeReviewStars,omitempty"`

	// RedirectRequested is set when the high-rating path opens the external
	// review link; the UI layer performs the actual navigation.
	RedirectRequested bool `json:"redirectRequested"`

	TimerStartedAt *time.Time `json:"timerStartedAt,omitempty"`
	TimerCompleted bool       `json:"timerCompleted"`
	GameUnlocked   bool       `json:"gameUnlocked"`

	HasPlayed    bool            `json:"hasPlayed"`
	HasWon       bool            `json:"hasWon"`
	WonPrize     *Prize          `json:"wonPrize,omitempty"`
	AssignedCode *RedemptionCode `json:"assignedCode,omitempty"`
}

// NewGateState returns the initial state of a fresh session.
func NewGateState() GateState {
	return GateState{Step: GateStepIdle}
}
