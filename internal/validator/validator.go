package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brightclass/mastery-service/internal/models"
)

// ValidationError represents a single failed validation rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts go-playground errors into our error type
func ToValidationErrors(err error) ValidationErrors {
	var errs ValidationErrors
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return errs
	}
	return ValidationErrors{{Field: "", Message: err.Error()}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "problem_type":
		return "is not a valid problem type"
	case "mastery_score":
		return "must be between 0 and 1"
	case "max_attempts":
		return "must be between 1 and 10"
	default:
		return fmt.Sprintf("failed rule %s", fe.Tag())
	}
}

// Validator wraps struct validation with the service's business rules
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerBusinessRules()

	return v
}

// Validate validates a struct; returns ValidationErrors when anything fails
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// registerBusinessRules registers custom business rule validators
func (v *Validator) registerBusinessRules() {
	// Problem type must be one of the closed enum values
	v.validate.RegisterValidation("problem_type", func(fl validator.FieldLevel) bool {
		t := models.ProblemType(strings.ToUpper(fl.Field().String()))
		switch t {
		case models.SingleChoice, models.MultiChoice,
			models.FillBlank, models.Essay, models.TrueFalse:
			return true
		}
		return false
	})

	// Mastery scores live on [0, 1]
	v.validate.RegisterValidation("mastery_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Float()
		return score >= 0 && score <= 1
	})

	// Max attempts validation (1-10)
	v.validate.RegisterValidation("max_attempts", func(fl validator.FieldLevel) bool {
		attempts := fl.Field().Int()
		return attempts >= 1 && attempts <= 10
	})
}
