package adapter

import (
	"context"

	apperrors "alvin-bot/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"
)

// TTSAdapter synthesizes reply text into an Opus audio stream
type TTSAdapter struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	logger *zap.Logger
}

// NewTTSAdapter creates a new text-to-speech adapter
func NewTTSAdapter(client *openai.Client, model, voice string, logger *zap.Logger) *TTSAdapter {
	return &TTSAdapter{
		client: client,
		model:  openai.SpeechModel(model),
		voice:  openai.SpeechVoice(voice),
		logger: logger,
	}
}

// Synthesize requests Opus-encoded speech for the given text.
// The returned stream must be closed by the caller.
func (a *TTSAdapter) Synthesize(ctx context.Context, text string) (*opus.Stream, error) {
	resp, err := a.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          a.model,
		Input:          text,
		Voice:          a.voice,
		ResponseFormat: openai.SpeechResponseFormatOpus,
		Speed:          1,
	})
	if err != nil {
		return nil, apperrors.NewSynthesisFailed(string(a.voice), err)
	}

	stream, err := opus.NewStream(resp)
	if err != nil {
		resp.Close()
		return nil, apperrors.NewSynthesisFailed(string(a.voice), err)
	}

	a.logger.Debug("speech synthesized",
		zap.String("voice", string(a.voice)),
		zap.Int("text_chars", len(text)),
	)

	return stream, nil
}
