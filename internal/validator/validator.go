package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with answer-shape validation
type Validator struct {
	structValidator *validator.Validate
	answerValidator *AnswerValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		answerValidator: NewAnswerValidator(),
	}
}

// ValidateStruct validates struct tags and converts failures to ValidationErrors
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Var validates a single value against a tag expression
func (v *Validator) Var(field string, value interface{}, tag string) error {
	if err := v.structValidator.Var(value, tag); err != nil {
		errs := ToValidationErrors(err)
		for i := range errs {
			errs[i].Field = field
		}
		if len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Answer returns the answer validator
func (v *Validator) Answer() *AnswerValidator {
	return v.answerValidator
}

// Engine exposes the underlying validator, e.g. for gin's binding
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("experience_level", validateExperienceLevel)
	validate.RegisterValidation("tool_type", validateToolType)
	validate.RegisterValidation("tool_operation", validateToolOperation)
	validate.RegisterValidation("score_value", validateScoreValue)
	validate.RegisterValidation("access_days", validateAccessDays)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// RegisterCustomValidators installs the custom tags on an existing engine
func RegisterCustomValidators(validate *validator.Validate) {
	registerCustomValidators(validate)
}

// Custom validation functions
func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}

func validateExperienceLevel(fl validator.FieldLevel) bool {
	return models.IsKnownLevel(fl.Field().String())
}

func validateToolType(fl validator.FieldLevel) bool {
	return models.ToolType(fl.Field().String()).IsValid()
}

func validateToolOperation(fl validator.FieldLevel) bool {
	_, ok := models.ToolOperation(fl.Field().String()).RequiredToolType()
	return ok
}

func validateScoreValue(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value >= 1 && value <= 5
}

func validateAccessDays(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value >= 1 && value <= 365
}
