package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionScenario       QuestionType = "scenario"
	QuestionForcedChoice   QuestionType = "forced_choice"
	QuestionScale          QuestionType = "scale_1_5"
	QuestionConfidence     QuestionType = "confidence"
	QuestionShortText      QuestionType = "short_text"
)

// QuestionTypes lists every supported question type
var QuestionTypes = []QuestionType{
	QuestionMultipleChoice,
	QuestionScenario,
	QuestionForcedChoice,
	QuestionScale,
	QuestionConfidence,
	QuestionShortText,
}

// IsChoice reports whether answers select one of the question's options
func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionScenario || t == QuestionForcedChoice
}

// IsNumeric reports whether answers are a 1-5 value
func (t QuestionType) IsNumeric() bool {
	return t == QuestionScale || t == QuestionConfidence
}

func (t QuestionType) IsText() bool {
	return t == QuestionShortText
}

func (t QuestionType) IsValid() bool {
	return t.IsChoice() || t.IsNumeric() || t.IsText()
}

type AssessmentModule struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`
	OrderIndex  int     `json:"order_index" gorm:"not null;index"`
	IsActive    bool    `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []AssessmentQuestion `json:"questions" gorm:"foreignKey:ModuleID"`
}

func (AssessmentModule) TableName() string {
	return "assessment_modules"
}

type AssessmentQuestion struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	ModuleID      uint         `json:"module_id" gorm:"not null;index"`
	QuestionType  QuestionType `json:"question_type" gorm:"not null;size:32"`
	Prompt        string       `json:"prompt" gorm:"type:text;not null"`
	HelpText      *string      `json:"help_text" gorm:"type:text"`
	OrderIndex    int          `json:"order_index" gorm:"not null;index"`
	Weight        float64      `json:"weight" gorm:"default:1"`
	MinLevel      *string      `json:"min_level" gorm:"size:32"`
	MaxLevel      *string      `json:"max_level" gorm:"size:32"`
	IsCalibration bool         `json:"is_calibration" gorm:"default:false"`

	SkillDimensions datatypes.JSON `json:"skill_dimensions" gorm:"type:jsonb"` // []string
	BranchCondition datatypes.JSON `json:"branch_condition" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// Dimensions decodes the skill dimensions the question contributes to
func (q *AssessmentQuestion) Dimensions() ([]string, error) {
	if isNullJSON(q.SkillDimensions) {
		return nil, nil
	}
	var dims []string
	if err := json.Unmarshal(q.SkillDimensions, &dims); err != nil {
		return nil, fmt.Errorf("question %d: invalid skill_dimensions: %w", q.ID, err)
	}
	return dims, nil
}

// Condition decodes the question's branch condition; nil means unconditional
func (q *AssessmentQuestion) Condition() (BranchCondition, error) {
	cond, err := ParseBranchCondition(q.BranchCondition)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}
	return cond, nil
}

// HasOption reports whether the option belongs to this question
func (q *AssessmentQuestion) HasOption(optionID uint) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

type QuestionOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Label      string `json:"label" gorm:"size:16"`
	OptionText string `json:"option_text" gorm:"type:text;not null"`
	OrderIndex int    `json:"order_index" gorm:"not null"`

	ScoreMap datatypes.JSON `json:"score_map" gorm:"type:jsonb"` // dimension -> contribution
	LevelMap datatypes.JSON `json:"level_map" gorm:"type:jsonb"` // informational only

	CreatedAt time.Time `json:"created_at"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// Scores decodes the option's score map
func (o *QuestionOption) Scores() (map[string]float64, error) {
	if isNullJSON(o.ScoreMap) {
		return nil, nil
	}
	var scores map[string]float64
	if err := json.Unmarshal(o.ScoreMap, &scores); err != nil {
		return nil, fmt.Errorf("option %d: invalid score_map: %w", o.ID, err)
	}
	return scores, nil
}

func isNullJSON(raw datatypes.JSON) bool {
	s := string(raw)
	return len(raw) == 0 || s == "null"
}
