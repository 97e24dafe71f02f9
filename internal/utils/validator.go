package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/tutorhub/quiz-service/internal/errors"
	"github.com/tutorhub/quiz-service/internal/models"
)

// Validator wraps go-playground/validator with the custom rules used across
// request structs.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate validates a struct and translates failures into the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.TrueFalse,
		models.MultipleChoice,
		models.OpenEnded,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateQuizStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.QuizStatus{
		models.StatusDraft,
		models.StatusSaved,
		models.StatusPosted,
		models.StatusCompleted,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func ValidateGradeMark(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.MarkCorrect) || value == string(models.MarkWrong)
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("quiz_status", ValidateQuizStatus)
	validate.RegisterValidation("grade_mark", ValidateGradeMark)

	// Report json field names in validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
