package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is either valid or a list of field-level errors
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Add records a field error and marks the result invalid
func (r *ValidationResult) Add(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// HasField reports whether field already has an error
func (r *ValidationResult) HasField(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors line up with the form fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("conditiontier", func(fl validator.FieldLevel) bool {
		return ConditionTier(fl.Field().String()).IsValid()
	})

	return v
}

// Validate checks a form struct against its validate tags
func Validate(form interface{}) ValidationResult {
	result := ValidationResult{Valid: true}

	err := validate.Struct(form)
	if err == nil {
		return result
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result.Add("", err.Error())
		return result
	}

	for _, fe := range verrs {
		field := fieldPath(fe)
		if result.HasField(field) {
			continue
		}
		result.Add(field, fieldMessage(fe))
	}
	return result
}

// fieldPath strips the struct name from the namespace, e.g. "SellRequest.photoIds[0]" -> "photoIds[0]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	isText := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "please enter a valid email"
	case "min":
		if isText {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be a positive number", field)
	case "gte":
		return fmt.Sprintf("%s must be %s or later", field, fe.Param())
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "conditiontier":
		tiers := make([]string, 0, 4)
		for _, t := range ValidConditionTiers() {
			tiers = append(tiers, string(t))
		}
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(tiers, ", "))
	default:
		return field + " is invalid"
	}
}
