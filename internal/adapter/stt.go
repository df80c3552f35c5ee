package adapter

import (
	"bytes"
	"context"
	"strings"

	"alvin-bot/internal/audio"
	apperrors "alvin-bot/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// STTAdapter transcribes buffered utterances with the Whisper API
type STTAdapter struct {
	client     *openai.Client
	model      string
	language   string
	sampleRate int
	logger     *zap.Logger
}

// NewSTTAdapter creates a new speech-to-text adapter. sampleRate is
// the capture rate of the incoming PCM; language may be empty for
// automatic detection.
func NewSTTAdapter(client *openai.Client, model, language string, sampleRate int, logger *zap.Logger) *STTAdapter {
	return &STTAdapter{
		client:     client,
		model:      model,
		language:   language,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// requestWAV downmixes one stereo utterance and wraps it in a WAV
// container at the configured capture rate.
func (a *STTAdapter) requestWAV(pcm []int16) []byte {
	mono := audio.DownmixStereo(pcm)
	return audio.PCMToWAV(mono, a.sampleRate, 1)
}

// Transcribe converts one utterance of captured stereo PCM to text.
// Returns ErrNoSpeech when the API finds nothing to transcribe.
func (a *STTAdapter) Transcribe(ctx context.Context, utteranceID string, pcm []int16) (string, error) {
	wav := a.requestWAV(pcm)

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.model,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(wav),
		Language: a.language,
	})
	if err != nil {
		return "", apperrors.NewTranscriptionFailed(utteranceID, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", apperrors.ErrNoSpeech
	}

	a.logger.Debug("utterance transcribed",
		zap.String("utterance_id", utteranceID),
		zap.Int("pcm_samples", len(pcm)),
		zap.Int("transcript_chars", len(text)),
	)

	return text, nil
}
