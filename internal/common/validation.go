package common

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validator collects field errors before a request is accepted.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// Check records a free-form failure when ok is false.
func (v *Validator) Check(ok bool, fieldName, message string) *Validator {
	if !ok {
		v.errors = append(v.errors, ValidationError{Field: fieldName, Message: message})
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err returns an INVALID_INPUT AppError or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return InvalidInput(v.ErrorMessage())
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

// Required rejects nil and blank strings.
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	if s, ok := asString(value); ok && strings.TrimSpace(s) == "" {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	if p, ok := value.(*string); ok && p == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

// OptionalURL accepts blank values and absolute http(s) URLs.
func OptionalURL(fieldName string, value interface{}) *ValidationError {
	s, ok := asString(value)
	if !ok || s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be an absolute http(s) URL"}
	}
	return nil
}

// ValidRegex rejects patterns that do not compile.
func ValidRegex(fieldName string, value interface{}) *ValidationError {
	s, ok := asString(value)
	if !ok || s == "" {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is not a valid regular expression"}
	}
	return nil
}

// OneOf builds a rule that accepts blank values and the listed options.
func OneOf(options ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := asString(value)
		if !ok || s == "" {
			return nil
		}
		for _, o := range options {
			if s == o {
				return nil
			}
		}
		return &ValidationError{Field: fieldName, Value: value, Message: "must be one of " + strings.Join(options, ", ")}
	}
}

// DecodeBase64Image strips an optional data URI prefix and decodes the payload.
func DecodeBase64Image(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	s = strings.TrimSpace(s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return b, nil
}
