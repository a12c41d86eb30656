package dto

import (
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
)

// ===== Assessment session =====

type BootstrapSessionRequest struct {
	DeviceToken string `json:"device_token" validate:"omitempty,max=64"`
}

type SaveResponseRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	NumericValue     *int    `json:"numeric_value" validate:"omitempty,score_value"`
	TextValue        *string `json:"text_value" validate:"omitempty,max=2000"`

	// Optional position to move to after saving
	CurrentModuleIndex   *int `json:"current_module_index" validate:"omitempty,min=0"`
	CurrentQuestionIndex *int `json:"current_question_index" validate:"omitempty,min=0"`
}

// Answer extracts the answer part of the request
func (r SaveResponseRequest) Answer() models.Answer {
	return models.Answer{
		QuestionID:       r.QuestionID,
		SelectedOptionID: r.SelectedOptionID,
		NumericValue:     r.NumericValue,
		TextValue:        r.TextValue,
	}
}

type UpdatePositionRequest struct {
	CurrentModuleIndex   int `json:"current_module_index" validate:"min=0"`
	CurrentQuestionIndex int `json:"current_question_index" validate:"min=0"`
}

type SaveEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type SetLevelRequest struct {
	InferredLevel string `json:"inferred_level" validate:"required,experience_level"`
}

// ===== Tool access =====

// VerifyAccessRequest carries at most one useful credential; a token wins over an email
type VerifyAccessRequest struct {
	Email       *string         `json:"email" validate:"omitempty,max=255"`
	AccessToken *string         `json:"access_token" validate:"omitempty,max=64"`
	ToolType    models.ToolType `json:"tool_type" validate:"required,tool_type"`
}

type ClaimAccessRequest struct {
	AccessToken string          `json:"access_token" validate:"required,max=64"`
	ToolType    models.ToolType `json:"tool_type" validate:"required,tool_type"`
}

type GrantPurchaseRequest struct {
	Email        string          `json:"email" validate:"required,email,max=255"`
	ToolType     models.ToolType `json:"tool_type" validate:"required,tool_type"`
	DurationDays int             `json:"duration_days" validate:"access_days"`
	Activate     bool            `json:"activate"`
}

// ===== Paid tools =====

type ToolCredentials struct {
	Email       *string `json:"email" validate:"omitempty,max=255"`
	AccessToken *string `json:"access_token" validate:"omitempty,max=64"`
}

// ToolInput holds the union of inputs across operations; each operation checks its own fields
type ToolInput struct {
	ResumeText      string `json:"resume_text" validate:"max=50000"`
	JobDescription  string `json:"job_description" validate:"max=20000"`
	TargetRole      string `json:"target_role" validate:"max=200"`
	CompanyName     string `json:"company_name" validate:"max=200"`
	ExperienceLevel string `json:"experience_level" validate:"omitempty,experience_level"`
	ProfileText     string `json:"profile_text" validate:"max=50000"`
	ProfileURL      string `json:"profile_url" validate:"omitempty,url,max=500"`
}

type RunToolRequest struct {
	ToolCredentials
	Input ToolInput `json:"input"`
}

// ParseResumeRequest is the non-file part of a resume upload
type ParseResumeRequest struct {
	ToolCredentials
	FileName    string `validate:"required,max=255"`
	ContentType string `validate:"required"`
	Size        int64  `validate:"min=1,max=10485760"`
}
