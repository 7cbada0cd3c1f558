package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/reviewplay/campaign-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrGameLocked is returned when a draw is attempted before the gate
	// unlocks the game.
	ErrGameLocked = errors.New("game is not unlocked")
	// ErrAlreadyPlayed is returned when a session attempts a second draw.
	ErrAlreadyPlayed = errors.New("session has already played")
)

const (
	defaultTimerSeconds    = 30
	defaultRatingThreshold = 4
)

// session is one participant's run through the gate. Each session owns its
// own state and at most one outstanding unlock timer.
type session struct {
	id            string
	campaignID    primitive.ObjectID
	participantID string
	gate          models.GateSettings
	state         models.GateState
	timer         *time.Timer
	lastActivity  time.Time
}

// SessionSnapshot is the read-only view of a session handed to the UI layer.
type SessionSnapshot struct {
	ID            string           `json:"id"`
	CampaignID    string           `json:"campaignId"`
	ParticipantID string           `json:"participantId"`
	ReviewLink    string           `json:"reviewLink"`
	TimerSeconds  int              `json:"timerSeconds"`
	State         models.GateState `json:"state"`
}

// GateService holds participant sessions in memory and sequences the gated
// flow: it applies gate events, owns the unlock timer, and is the sole
// trigger point that invokes the draw — exactly once per session.
type GateService struct {
	mu        sync.Mutex
	sessions  map[string]*session
	campaigns repositories.CampaignRepository
	draws     *DrawService
	now       func() time.Time
}

// NewGateService creates a GateService.
func NewGateService(campaigns repositories.CampaignRepository, draws *DrawService) *GateService {
	return &GateService{
		sessions:  make(map[string]*session),
		campaigns: campaigns,
		draws:     draws,
		now:       time.Now,
	}
}

// CreateSession starts a fresh session for a campaign and advances it to the
// instructions step.
func (s *GateService) CreateSession(ctx context.Context, campaignID primitive.ObjectID, participantID string) (SessionSnapshot, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return SessionSnapshot{}, fmt.Errorf("load campaign: %w", err)
	}

	gate := campaign.Gate
	if gate.TimerSeconds <= 0 {
		gate.TimerSeconds = defaultTimerSeconds
	}
	if gate.RatingThreshold <= 0 {
		gate.RatingThreshold = defaultRatingThreshold
	}

	state, err := Transition(models.NewGateState(), EventStartFlow{}, gate, s.now())
	if err != nil {
		return SessionSnapshot{}, err
	}

	sess := &session{
		id:            uuid.NewString(),
		campaignID:    campaign.ID,
		participantID: participantID,
		gate:          gate,
		state:         state,
		lastActivity:  s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	slog.Info("Session created", "sessionId", sess.id, "campaignId", campaign.ID, "participant", participantID)
	return s.snapshotLocked(sess), nil
}

// Apply applies a gate event to a session. Starting the redirect path
// schedules the unlock timer; resetting cancels it.
func (s *GateService) Apply(sessionID string, event GateEvent) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return SessionSnapshot{}, ErrSessionNotFound
	}

	timerWasRunning := sess.state.TimerStartedAt != nil
	next, err := Transition(sess.state, event, sess.gate, s.now())
	if err != nil {
		return s.snapshotLocked(sess), err
	}
	sess.state = next
	sess.lastActivity = s.now()

	if _, isReset := event.(EventReset); isReset {
		sess.stopTimer()
		return s.snapshotLocked(sess), nil
	}

	// The only path into "timer running" is the redirect path, reachable once
	// per session, so a new timer never races an outstanding one.
	if !timerWasRunning && sess.state.TimerStartedAt != nil {
		duration := time.Duration(sess.gate.TimerSeconds) * time.Second
		sess.timer = time.AfterFunc(duration, func() {
			s.completeTimer(sessionID)
		})
	}

	return s.snapshotLocked(sess), nil
}

// completeTimer is the timer callback: it unlocks the game when the wait
// elapses. A session reset between scheduling and firing makes the
// transition invalid, which is logged and dropped.
func (s *GateService) completeTimer(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	next, err := Transition(sess.state, EventCompleteTimer{}, sess.gate, s.now())
	if err != nil {
		slog.Warn("Gate timer fired in a non-waiting state", "sessionId", sessionID, "error", err)
		return
	}
	sess.state = next
	sess.timer = nil
	slog.Info("Gate timer elapsed, game unlocked", "sessionId", sessionID)
}

// Play triggers the draw for an unlocked session, persists the consumed
// stock and used code, and stores the result on the session. The hasPlayed
// check here is what enforces the at-most-once draw per session.
func (s *GateService) Play(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return SessionSnapshot{}, ErrSessionNotFound
	}
	if sess.state.HasPlayed {
		return s.snapshotLocked(sess), ErrAlreadyPlayed
	}
	if sess.state.Step != models.GateStepGame || !sess.state.GameUnlocked {
		return s.snapshotLocked(sess), ErrGameLocked
	}

	campaign, err := s.campaigns.FindByID(ctx, sess.campaignID)
	if err != nil {
		return s.snapshotLocked(sess), fmt.Errorf("load campaign: %w", err)
	}

	result, err := s.draws.Draw(campaign, s.now(), sess.participantID)
	if err != nil {
		return s.snapshotLocked(sess), fmt.Errorf("draw: %w", err)
	}

	if result.Won {
		if err := s.campaigns.Update(ctx, campaign); err != nil {
			// Stock was consumed only on the in-memory copy; without the save
			// the draw must not count as played.
			slog.Error("Failed to persist draw outcome", "sessionId", sessionID, "campaignId", campaign.ID, "error", err)
			return s.snapshotLocked(sess), fmt.Errorf("persist draw outcome: %w", err)
		}
	}

	next, err := Transition(sess.state, EventSetResult{Result: result}, sess.gate, s.now())
	if err != nil {
		return s.snapshotLocked(sess), err
	}
	sess.state = next
	sess.lastActivity = s.now()

	return s.snapshotLocked(sess), nil
}

// Snapshot returns the current read-only view of a session.
func (s *GateService) Snapshot(sessionID string) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return SessionSnapshot{}, ErrSessionNotFound
	}
	return s.snapshotLocked(sess), nil
}

// RemoveSession discards a session and cancels its outstanding timer.
func (s *GateService) RemoveSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.stopTimer()
		delete(s.sessions, sessionID)
		slog.Info("Session removed", "sessionId", sessionID)
	}
}

// CleanupInactive removes sessions idle for longer than maxIdle and returns
// how many were dropped. Timers of dropped sessions are cancelled.
func (s *GateService) CleanupInactive(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.now().Sub(sess.lastActivity) > maxIdle {
			sess.stopTimer()
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Cleaned up inactive sessions", "removed", removed)
	}
	return removed
}

func (s *GateService) snapshotLocked(sess *session) SessionSnapshot {
	return SessionSnapshot{
		ID:            sess.id,
		CampaignID:    sess.campaignID.Hex(),
		ParticipantID: sess.participantID,
		ReviewLink:    sess.gate.ReviewLink,
		TimerSeconds:  sess.gate.TimerSeconds,
		State:         sess.state,
	}
}

func (sess *session) stopTimer() {
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
}
