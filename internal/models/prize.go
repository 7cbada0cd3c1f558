package models

import (
	"time"
)

// AttributionMethod is the rule by which a prize becomes winnable in a draw.
type AttributionMethod string

const (
	// AttributionProbability prizes are selected by weighted random chance.
	AttributionProbability AttributionMethod = "PROBABILITY"
	// AttributionCalendar prizes are guaranteed wins inside a fixed time window.
	AttributionCalendar AttributionMethod = "CALENDAR"
)

// PrizeStatus is derived from remaining stock and, for calendar prizes, the
// position of the reference time relative to the prize window. It is never
// stored authoritatively; ComputeStatus is the single source of truth.
type PrizeStatus string

const (
	PrizeStatusActive    PrizeStatus = "ACTIVE"
	PrizeStatusDepleted  PrizeStatus = "DEPLETED"
	PrizeStatusScheduled PrizeStatus = "SCHEDULED"
)

// Prize represents a finite-stock reward a participant may win.
type Prize struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	// Quantity is the total units ever allocatable. Remaining counts units not
	// yet consumed by a confirmed win: 0 <= Remaining <= Quantity.
	Quantity  int `bson:"quantity" json:"quantity"`
	Remaining int `bson:"remaining" json:"remaining"`

	AttributionMethod AttributionMethod `bson:"attributionMethod" json:"attributionMethod"`

	// WinProbability is a percentage in [0,100], used when the attribution
	// method is PROBABILITY.
	WinProbability float64 `bson:"winProbability,omitempty" json:"winProbability,omitempty"`

	// CalendarDate (YYYY-MM-DD), CalendarTime (HH:MM) and TimeWindowMinutes
	// define the eligibility window of a CALENDAR prize.
	CalendarDate      string `bson:"calendarDate,omitempty" json:"calendarDate,omitempty"`
	CalendarTime      string `bson:"calendarTime,omitempty" json:"calendarTime,omitempty"`
	TimeWindowMinutes int    `bson:"timeWindowMinutes,omitempty" json:"timeWindowMinutes,omitempty"`

	Status PrizeStatus `bson:"status" json:"status"`

	// RevealPayload carries channel-specific reveal content (win/lose text or
	// image for a scratch surface). Opaque to the engine.
	RevealPayload map[string]interface{} `bson:"revealPayload,omitempty" json:"revealPayload,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

const calendarDateLayout = "2006-01-02 15:04"

// WindowStart returns the opening instant of a calendar prize's window.
// The zero time and false are returned when the calendar fields are unset
// or unparseable.
func (p Prize) WindowStart() (time.Time, bool) {
	if p.CalendarDate == "" || p.CalendarTime == "" {
		return time.Time{}, false
	}
	start, err := time.ParseInLocation(calendarDateLayout, p.CalendarDate+" "+p.CalendarTime, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return start, true
}

// WindowContains reports whether now falls within [start, start+window].
func (p Prize) WindowContains(now time.Time) bool {
	start, ok := p.WindowStart()
	if !ok {
		return false
	}
	end := start.Add(time.Duration(p.TimeWindowMinutes) * time.Minute)
	return !now.Before(start) && !now.After(end)
}

// ComputeStatus derives the prize status at the given reference time.
// DEPLETED wins over SCHEDULED: a calendar prize with no stock left is
// depleted even before its window opens.
func (p Prize) ComputeStatus(now time.Time) PrizeStatus {
	if p.Remaining <= 0 {
		return PrizeStatusDepleted
	}
	if p.AttributionMethod == AttributionCalendar {
		if start, ok := p.WindowStart(); ok && now.Before(start) {
			return PrizeStatusScheduled
		}
	}
	return PrizeStatusActive
}
