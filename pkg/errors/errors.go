package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeSession represents voice-session errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeAuth represents authorization errors
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeTranscription represents speech-to-text errors
	ErrorTypeTranscription ErrorType = "transcription"
	// ErrorTypeGeneration represents language-model errors
	ErrorTypeGeneration ErrorType = "generation"
	// ErrorTypeSynthesis represents text-to-speech errors
	ErrorTypeSynthesis ErrorType = "synthesis"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

func (e *BaseError) base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Session errors

// ErrAlreadyConnected is returned when the bot already has a voice connection in the guild
var ErrAlreadyConnected = NewBaseError(ErrorTypeSession, "already connected to a voice channel in this guild", nil)

// ErrNotConnected is returned when no voice connection exists in the guild
var ErrNotConnected = NewBaseError(ErrorTypeSession, "not connected to a voice channel in this guild", nil)

// ErrUserNotInChannel is returned when the invoking user has no voice channel
var ErrUserNotInChannel = NewBaseError(ErrorTypeSession, "user is not in a voice channel", nil)

// Authorization errors

// ErrNotAuthorized is returned when a restricted command is invoked by a non-owner
var ErrNotAuthorized = NewBaseError(ErrorTypeAuth, "not authorized to run this command", nil)

// Transcription errors

// ErrNoSpeech is returned when the speech API reports no recognizable speech
var ErrNoSpeech = NewBaseError(ErrorTypeTranscription, "no recognizable speech in utterance", nil)

// ErrTranscriptionFailed is returned when the speech-to-text call fails
type ErrTranscriptionFailed struct {
	*BaseError
	UtteranceID string
}

func NewTranscriptionFailed(utteranceID string, err error) *ErrTranscriptionFailed {
	return &ErrTranscriptionFailed{
		BaseError:   NewBaseError(ErrorTypeTranscription, fmt.Sprintf("transcription failed for utterance %s", utteranceID), err),
		UtteranceID: utteranceID,
	}
}

// Generation errors

// ErrGenerationFailed is returned when the language-model call fails
type ErrGenerationFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewGenerationFailed(model string, attempts int, err error) *ErrGenerationFailed {
	return &ErrGenerationFailed{
		BaseError: NewBaseError(ErrorTypeGeneration, fmt.Sprintf("generation failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// Synthesis errors

// ErrSynthesisFailed is returned when the text-to-speech call fails
type ErrSynthesisFailed struct {
	*BaseError
	Voice string
}

func NewSynthesisFailed(voice string, err error) *ErrSynthesisFailed {
	return &ErrSynthesisFailed{
		BaseError: NewBaseError(ErrorTypeSynthesis, "speech synthesis failed", err),
		Voice:     voice,
	}
}

// Config errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	// Typed errors embed *BaseError
	if typed, ok := err.(interface{ base() *BaseError }); ok {
		return typed.base().Type == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}

// IsRecoverable reports whether an error should be handled locally without
// terminating the process. Only configuration errors are fatal.
func IsRecoverable(err error) bool {
	return !IsErrorType(err, ErrorTypeConfig)
}
