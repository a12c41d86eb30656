package models

import (
	"time"
)

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
)

// IsTerminal reports whether no further transitions are allowed
func (s SessionStatus) IsTerminal() bool {
	return s == SessionSubmitted
}

type AssessmentSession struct {
	ID                   uint          `json:"id" gorm:"primaryKey"`
	SessionToken         string        `json:"session_token" gorm:"uniqueIndex;not null;size:64"`
	Status               SessionStatus `json:"status" gorm:"not null;size:32;default:not_started;index"`
	CurrentModuleIndex   int           `json:"current_module_index" gorm:"default:0"`
	CurrentQuestionIndex int           `json:"current_question_index" gorm:"default:0"`
	Email                *string       `json:"email" gorm:"size:255;index"`
	InferredLevel        *string       `json:"inferred_level" gorm:"size:32"`
	SubmittedAt          *time.Time    `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AssessmentSession) TableName() string {
	return "assessment_sessions"
}

// HasEmail reports whether the visitor already left an email
func (s *AssessmentSession) HasEmail() bool {
	return s.Email != nil && *s.Email != ""
}

// AssessmentResponse is unique per (session, question); a later answer replaces an earlier one.
type AssessmentResponse struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	SessionID        uint    `json:"session_id" gorm:"not null;uniqueIndex:idx_response_session_question,priority:1"`
	QuestionID       uint    `json:"question_id" gorm:"not null;uniqueIndex:idx_response_session_question,priority:2"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	NumericValue     *int    `json:"numeric_value"`
	TextValue        *string `json:"text_value" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AssessmentResponse) TableName() string {
	return "assessment_responses"
}

// Answer is a single submitted answer; exactly one value field is set.
type Answer struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedOptionID *uint   `json:"selected_option_id,omitempty"`
	NumericValue     *int    `json:"numeric_value,omitempty" validate:"omitempty,score_value"`
	TextValue        *string `json:"text_value,omitempty" validate:"omitempty,max=2000"`
}

// ToResponse builds the persisted row for the answer
func (a Answer) ToResponse(sessionID uint) *AssessmentResponse {
	return &AssessmentResponse{
		SessionID:        sessionID,
		QuestionID:       a.QuestionID,
		SelectedOptionID: a.SelectedOptionID,
		NumericValue:     a.NumericValue,
		TextValue:        a.TextValue,
	}
}
