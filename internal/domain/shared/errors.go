package shared

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested record does not exist
var ErrNotFound = errors.New("record not found")

// DomainError represents a business rule violation with a machine-readable code
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// IsDomainError reports whether err is a DomainError and returns it if so
func IsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
