package qhistory

import (
	"errors"

	"github.com/dan-solli/qhistory/pkg/command"
	"github.com/dan-solli/qhistory/pkg/history"
)

// Error type constants for classification
const (
	ErrTypeSyntax         = "syntax"
	ErrTypeInvalidHistory = "invalid_history"
	ErrTypeUnknownHistory = "unknown_history"
	ErrTypeInvalidNumber  = "invalid_number"
	ErrTypeNoEnergy       = "no_energy"
	ErrTypeIO             = "io"
	ErrTypeUnknown        = "unknown"
)

// ClassifyError inspects an error and returns its type classification.
// This enables grouping errors by category in metrics, traces and the journal.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, command.ErrSyntax):
		return ErrTypeSyntax
	case errors.Is(err, history.ErrInvalidHistory):
		return ErrTypeInvalidHistory
	case errors.Is(err, history.ErrUnknownHistory):
		return ErrTypeUnknownHistory
	case errors.Is(err, history.ErrInvalidNumber):
		return ErrTypeInvalidNumber
	case errors.Is(err, history.ErrNoEnergy):
		return ErrTypeNoEnergy
	case errors.Is(err, command.ErrUnexpectedEOF):
		return ErrTypeIO
	default:
		return ErrTypeUnknown
	}
}
