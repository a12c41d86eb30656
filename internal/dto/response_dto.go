package dto

import (
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
)

type ModuleResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	OrderIndex    int     `json:"order_index"`
	QuestionCount int     `json:"question_count"`
}

// OptionResponse deliberately omits score and level maps
type OptionResponse struct {
	ID         uint   `json:"id"`
	Label      string `json:"label"`
	OptionText string `json:"option_text"`
	OrderIndex int    `json:"order_index"`
}

type QuestionResponse struct {
	ID            uint                `json:"id"`
	ModuleID      uint                `json:"module_id"`
	QuestionType  models.QuestionType `json:"question_type"`
	Prompt        string              `json:"prompt"`
	HelpText      *string             `json:"help_text"`
	OrderIndex    int                 `json:"order_index"`
	Weight        float64             `json:"weight"`
	IsCalibration bool                `json:"is_calibration"`
	Dimensions    []string            `json:"skill_dimensions"`
	Options       []OptionResponse    `json:"options"`
}

type SessionResponse struct {
	SessionToken         string               `json:"session_token"`
	Status               models.SessionStatus `json:"status"`
	CurrentModuleIndex   int                  `json:"current_module_index"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	Email                *string              `json:"email"`
	InferredLevel        *string              `json:"inferred_level"`
	SubmittedAt          *time.Time           `json:"submitted_at"`
	CreatedAt            time.Time            `json:"created_at"`
}

type AssessmentStateResponse struct {
	Session         SessionResponse    `json:"session"`
	Questions       []QuestionResponse `json:"questions"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	Progress        int                `json:"progress"`
	AnsweredCount   int                `json:"answered_count"`
	ShowSignupGate  bool               `json:"show_signup_gate"`
}

type VerifyAccessResponse struct {
	Valid      bool            `json:"valid"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
	PurchaseID uint            `json:"purchase_id,omitempty"`
	ToolType   models.ToolType `json:"tool_type,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	UsageCount int             `json:"usage_count,omitempty"`
}

type PurchaseResponse struct {
	ID          uint                  `json:"id"`
	Email       string                `json:"email"`
	ToolType    models.ToolType       `json:"tool_type"`
	Status      models.PurchaseStatus `json:"status"`
	AccessToken string                `json:"access_token"`
	PurchasedAt time.Time             `json:"purchased_at"`
	ExpiresAt   time.Time             `json:"expires_at"`
	UsageCount  int                   `json:"usage_count"`
}

type RunToolResponse struct {
	Operation models.ToolOperation `json:"operation"`
	Result    string               `json:"result"`
	Model     string               `json:"model"`
	ObjectKey string               `json:"object_key,omitempty"`
}
