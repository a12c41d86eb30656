package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the service emits
type EventType string

const (
	// Assessment session events
	EventSessionStarted   EventType = "session.started"
	EventLeadCaptured     EventType = "session.lead_captured"
	EventSessionSubmitted EventType = "session.submitted"

	// Tool access events
	EventToolAccessGranted EventType = "tool_access.granted"
	EventToolAccessClaimed EventType = "tool_access.claimed"
	EventToolAccessAllowed EventType = "tool_access.allowed"
	EventToolAccessDenied  EventType = "tool_access.denied"
	EventToolInvoked       EventType = "tool.invoked"
)

const (
	eventSource  = "career-assessment-service"
	eventVersion = "1.0"
)

// Event is the envelope published for every domain event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID    uint   `json:"session_id"`
	SessionToken string `json:"session_token"`
}

type LeadCapturedEvent struct {
	SessionID     uint    `json:"session_id"`
	Email         string  `json:"email"`
	AnsweredCount int     `json:"answered_count"`
	InferredLevel *string `json:"inferred_level,omitempty"`
}

type SessionSubmittedEvent struct {
	SessionID       uint               `json:"session_id"`
	Email           *string            `json:"email,omitempty"`
	InferredLevel   *string            `json:"inferred_level,omitempty"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	AnsweredCount   int                `json:"answered_count"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
}

// Tool access event payloads

type ToolAccessEvent struct {
	PurchaseID uint      `json:"purchase_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	ToolType   string    `json:"tool_type"`
	Method     string    `json:"method"` // token or email
	Reason     string    `json:"reason,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

type ToolInvokedEvent struct {
	PurchaseID uint   `json:"purchase_id"`
	ToolType   string `json:"tool_type"`
	Operation  string `json:"operation"`
	Succeeded  bool   `json:"succeeded"`
}

// NewEvent wraps a payload in an event envelope
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// GenerateEventID returns a unique event identifier
func GenerateEventID() string {
	return uuid.NewString()
}
