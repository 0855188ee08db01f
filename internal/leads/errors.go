package leads

import "github.com/johnrirwin/autolot/internal/models"

// Error codes carried by ServiceError
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeOutOfRange   = "out_of_range"
	CodeOutOfStock   = "out_of_stock"
	CodeThrottled    = "throttled"
)

// ServiceError represents a caller-facing failure of a lead operation
type ServiceError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []models.FieldError `json:"errors,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

func invalidForm(result models.ValidationResult) *ServiceError {
	return &ServiceError{
		Code:    CodeInvalidInput,
		Message: "please correct the highlighted fields",
		Fields:  result.Errors,
	}
}

func fieldError(field, message string) *ServiceError {
	return &ServiceError{
		Code:    CodeInvalidInput,
		Message: message,
		Fields:  []models.FieldError{{Field: field, Message: message}},
	}
}
