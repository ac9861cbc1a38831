package models

import "time"

// EventType is the coarse outcome category of a review event
type EventType string

const (
	EventCorrect       EventType = "correct"
	EventIncorrect     EventType = "incorrect"
	EventStruggled     EventType = "struggled"
	EventSelfCorrected EventType = "self_corrected"
	EventIntroduced    EventType = "introduced"
	EventReviewed      EventType = "reviewed"
	EventMastered      EventType = "mastered"
	EventForgot        EventType = "forgot"
)

// EventTypes lists every known event type
var EventTypes = []EventType{
	EventCorrect,
	EventIncorrect,
	EventStruggled,
	EventSelfCorrected,
	EventIntroduced,
	EventReviewed,
	EventMastered,
	EventForgot,
}

// EventContext is the optional detail attached to an event
type EventContext struct {
	ResponseLatency  time.Duration `json:"response_latency"`
	SelfCorrected    bool          `json:"self_corrected"`
	CloseAttempt     bool          `json:"close_attempt"`
	ErrorDescription string        `json:"error_description,omitempty"`
}

// ReviewEvent is an immutable fact about one interaction with a concept
type ReviewEvent struct {
	ID string `json:"id"`
	ConceptKey
	Kind       ConceptKind  `json:"kind"`
	Type       EventType    `json:"type"`
	Context    EventContext `json:"context"`
	Quality    int          `json:"quality"`
	OccurredAt time.Time    `json:"occurred_at"`
}
