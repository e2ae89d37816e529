package assets

import "fmt"

// ValidationError is a rejected input: wrong file type, missing field,
// unknown category. No state changes when one is returned.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a failed listing, upload or fetch.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return "network: " + e.Op
	}
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a payload that does not parse as the expected format.
type DecodeError struct {
	URI    string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	msg := "decode"
	if e.Format != "" {
		msg += " " + e.Format
	}
	if e.URI != "" {
		msg += " " + e.URI
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }
