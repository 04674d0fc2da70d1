package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDataset is returned when no transaction rows survive noise filtering.
var ErrEmptyDataset = errors.New("no valid transaction data")

// ErrUnsupportedFormat is returned by format handlers for unknown file types.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ValidationError reports required schema fields missing from a
// credit_bureau or kyb_kyc document.
type ValidationError struct {
	DocumentType DocumentType
	Fields       []string
	Reason       string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s validation failed: missing required fields: %s", e.DocumentType, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s validation failed: %s", e.DocumentType, e.Reason)
}

// IsClientError reports whether err stems from the submitted document rather
// than from the service.
func IsClientError(err error) bool {
	var vErr *ValidationError
	return errors.Is(err, ErrEmptyDataset) || errors.As(err, &vErr)
}
