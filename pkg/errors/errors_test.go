package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_Error(t *testing.T) {
	err := NewBaseError(ErrorTypeSession, "something broke", nil)
	assert.Equal(t, "[session] something broke", err.Error())

	wrapped := NewBaseError(ErrorTypeGeneration, "model call failed", errors.New("timeout"))
	assert.Equal(t, "[generation] model call failed: timeout", wrapped.Error())
}

func TestBaseError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewBaseError(ErrorTypeTranscription, "api unavailable", inner)

	assert.ErrorIs(t, err, inner)
}

func TestSentinels_MatchWithErrorsIs(t *testing.T) {
	assert.ErrorIs(t, fmt.Errorf("join: %w", ErrAlreadyConnected), ErrAlreadyConnected)
	assert.ErrorIs(t, fmt.Errorf("leave: %w", ErrNotConnected), ErrNotConnected)
	assert.NotErrorIs(t, ErrNotConnected, ErrAlreadyConnected)
}

func TestTypedErrors_CarryContext(t *testing.T) {
	tErr := NewTranscriptionFailed("utt-1", errors.New("http 500"))
	assert.Equal(t, "utt-1", tErr.UtteranceID)
	assert.Contains(t, tErr.Error(), "utt-1")

	gErr := NewGenerationFailed("gpt-4o", 3, errors.New("rate limited"))
	assert.Equal(t, "gpt-4o", gErr.Model)
	assert.Equal(t, 3, gErr.Attempts)
	assert.Contains(t, gErr.Error(), "3 attempts")

	sErr := NewSynthesisFailed("echo", errors.New("bad voice"))
	assert.Equal(t, "echo", sErr.Voice)

	cErr := NewConfigMissingRequired("DISCORD_BOT_TOKEN")
	assert.Equal(t, "DISCORD_BOT_TOKEN", cErr.Field)
}

func TestIsErrorType(t *testing.T) {
	assert.True(t, IsErrorType(ErrNotConnected, ErrorTypeSession))
	assert.False(t, IsErrorType(ErrNotConnected, ErrorTypeAuth))
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeSession))
	assert.True(t, IsErrorType(NewTranscriptionFailed("utt-1", nil), ErrorTypeTranscription))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrNoSpeech))
	assert.True(t, IsRecoverable(errors.New("plain")))
	assert.False(t, IsRecoverable(NewBaseError(ErrorTypeConfig, "missing field", nil)))
}
