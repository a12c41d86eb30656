package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
)

// AnswerValidator checks that an answer has the shape its question type expects
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// Validate checks the answer against the question. Exactly one value must be set and it
// must match the question type; a selected option must belong to the question.
func (v *AnswerValidator) Validate(question *models.AssessmentQuestion, answer models.Answer) ValidationErrors {
	var errs ValidationErrors

	set := 0
	if answer.SelectedOptionID != nil {
		set++
	}
	if answer.NumericValue != nil {
		set++
	}
	if answer.TextValue != nil {
		set++
	}
	if set != 1 {
		return append(errs, ValidationError{
			Field:   "answer",
			Message: "exactly one of selected_option_id, numeric_value or text_value is required",
			Rule:    "one_answer",
		})
	}

	switch {
	case question.QuestionType.IsChoice():
		if answer.SelectedOptionID == nil {
			errs = append(errs, v.typeMismatch("selected_option_id", question.QuestionType))
		} else if !question.HasOption(*answer.SelectedOptionID) {
			errs = append(errs, ValidationError{
				Field:   "selected_option_id",
				Message: fmt.Sprintf("option does not belong to question %d", question.ID),
				Value:   *answer.SelectedOptionID,
				Rule:    "question_option",
			})
		}
	case question.QuestionType.IsNumeric():
		if answer.NumericValue == nil {
			errs = append(errs, v.typeMismatch("numeric_value", question.QuestionType))
		} else if *answer.NumericValue < 1 || *answer.NumericValue > 5 {
			errs = append(errs, ValidationError{
				Field:   "numeric_value",
				Message: "must be between 1 and 5",
				Value:   *answer.NumericValue,
				Rule:    "score_value",
			})
		}
	case question.QuestionType.IsText():
		if answer.TextValue == nil {
			errs = append(errs, v.typeMismatch("text_value", question.QuestionType))
		} else if strings.TrimSpace(*answer.TextValue) == "" {
			errs = append(errs, ValidationError{
				Field:   "text_value",
				Message: "is required",
				Rule:    "required",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "question_type",
			Message: fmt.Sprintf("unsupported question type: %s", question.QuestionType),
			Value:   question.QuestionType,
			Rule:    "question_type",
		})
	}

	return errs
}

func (v *AnswerValidator) typeMismatch(field string, questionType models.QuestionType) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("is required for %s questions", questionType),
		Rule:    "required",
	}
}
