package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/reviewplay/campaign-backend/internal/models"
)

// ErrInvalidTransition is returned when an event is not permitted in the
// session's current step.
var ErrInvalidTransition = errors.New("invalid gate transition")

// GateEvent is one of the named transitions a caller may apply to a session.
// These are the only mutation entry points; all other state is read-only.
type GateEvent interface {
	gateEvent()
}

type EventStartFlow struct{}

type EventCloseInstructions struct{}

// EventSelectRating records the participant's star rating. Ratings at or
// above the campaign threshold follow the redirect path; lower ratings open
// the negative-feedback modal instead.
type EventSelectRating struct {
	Rating int
}

type EventCloseNegativeModal struct{}

// EventSubmitNegativeReview unlocks the game immediately: negative reviewers
// are not redirected, so there is no timer to wait out.
type EventSubmitNegativeReview struct {
	Text  string
	Stars int
}

// EventUpgradeRating lets a participant in the negative modal change their
// mind and pick a high rating, joining the redirect-plus-timer path.
type EventUpgradeRating struct {
	Rating int
}

// EventCompleteTimer fires when the gate timer elapses. Applied by the
// session's scheduled callback, never by external callers.
type EventCompleteTimer struct{}

// EventSetResult stores the draw outcome and moves the session to the result
// screen.
type EventSetResult struct {
	Result models.DrawResult
}

type EventReset struct{}

func (EventStartFlow) gateEvent()            {}
func (EventCloseInstructions) gateEvent()    {}
func (EventSelectRating) gateEvent()         {}
func (EventCloseNegativeModal) gateEvent()   {}
func (EventSubmitNegativeReview) gateEvent() {}
func (EventUpgradeRating) gateEvent()        {}
func (EventCompleteTimer) gateEvent()        {}
func (EventSetResult) gateEvent()            {}
func (EventReset) gateEvent()                {}

// Transition applies one event to a gate state and returns the next state.
// Pure: it never schedules timers or touches shared state. The session layer
// owns the actual timer and fires EventCompleteTimer when it elapses.
func Transition(state models.GateState, event GateEvent, gate models.GateSettings, now time.Time) (models.GateState, error) {
	switch ev := event.(type) {
	case EventReset:
		return models.NewGateState(), nil

	case EventStartFlow:
		if state.Step != models.GateStepIdle {
			return state, invalidTransition("START_FLOW", state.Step)
		}
		state.Step = models.GateStepInstructions
		return state, nil

	case EventCloseInstructions:
		if state.Step != models.GateStepInstructions {
			return state, invalidTransition("CLOSE_INSTRUCTIONS", state.Step)
		}
		state.Step = models.GateStepReview
		return state, nil

	case EventSelectRating:
		if state.Step != models.GateStepReview {
			return state, invalidTransition("SELECT_RATING", state.Step)
		}
		state.SelectedRating = ev.Rating
		if ev.Rating >= gate.RatingThreshold {
			return startRedirectPath(state, now), nil
		}
		state.Step = models.GateStepNegativeModal
		return state, nil

	case EventCloseNegativeModal:
		if state.Step != models.GateStepNegativeModal {
			return state, invalidTransition("CLOSE_NEGATIVE_MODAL", state.Step)
		}
		state.Step = models.GateStepReview
		return state, nil

	case EventSubmitNegativeReview:
		if state.Step != models.GateStepNegativeModal {
			return state, invalidTransition("SUBMIT_NEGATIVE_REVIEW", state.Step)
		}
		state.NegativeReviewText = ev.Text
		state.NegativeReviewStars = ev.Stars
		state.Step = models.GateStepGame
		state.GameUnlocked = true
		return state, nil

	case EventUpgradeRating:
		if state.Step != models.GateStepNegativeModal {
			return state, invalidTransition("UPGRADE_RATING", state.Step)
		}
		if ev.Rating < gate.RatingThreshold {
			return state, fmt.Errorf("%w: UPGRADE_RATING requires a rating of at least %d", ErrInvalidTransition, gate.RatingThreshold)
		}
		state.SelectedRating = ev.Rating
		return startRedirectPath(state, now), nil

	case EventCompleteTimer:
		if state.Step != models.GateStepGame || state.TimerStartedAt == nil {
			return state, invalidTransition("COMPLETE_TIMER", state.Step)
		}
		if state.TimerCompleted || state.GameUnlocked {
			return state, fmt.Errorf("%w: game is already unlocked", ErrInvalidTransition)
		}
		state.TimerCompleted = true
		state.GameUnlocked = true
		return state, nil

	case EventSetResult:
		if state.Step != models.GateStepGame {
			return state, invalidTransition("SET_RESULT", state.Step)
		}
		if !state.GameUnlocked {
			return state, fmt.Errorf("%w: game is not unlocked yet", ErrInvalidTransition)
		}
		if state.HasPlayed {
			return state, fmt.Errorf("%w: session has already played", ErrInvalidTransition)
		}
		state.HasPlayed = true
		state.HasWon = ev.Result.Won
		state.WonPrize = ev.Result.Prize
		state.AssignedCode = ev.Result.Code
		state.Step = models.GateStepResult
		return state, nil

	default:
		return state, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, event)
	}
}

// startRedirectPath moves a session to the game step with the external
// redirect requested and the unlock timer started. The game stays locked
// until the timer elapses.
func startRedirectPath(state models.GateState, now time.Time) models.GateState {
	startedAt := now
	state.Step = models.GateStepGame
	state.RedirectRequested = true
	state.TimerStartedAt = &startedAt
	return state
}

func invalidTransition(event string, step models.GateStep) error {
	return fmt.Errorf("%w: %s not permitted in step %s", ErrInvalidTransition, event, step)
}
