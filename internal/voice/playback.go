package voice

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/oov/audio/resampler"
	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"
)

const ttsSampleRate = 24000 // OpenAI speech responses are 24kHz mono

// Player re-encodes a synthesized Opus stream into 20ms Discord voice
// frames. One playback runs at a time per player; a session owns one.
type Player struct {
	logger  *zap.Logger
	encoder *opus.Encoder

	mu sync.Mutex // serializes playback
}

// NewPlayer creates a player with a Discord-ready Opus encoder
func NewPlayer(logger *zap.Logger) (*Player, error) {
	encoder, err := opus.NewEncoder(SampleRate, Channels, opus.AppVoIP)
	if err != nil {
		return nil, err
	}
	encoder.SetBitrateToAuto()
	encoder.SetMaxBandwidth(opus.Fullband)

	return &Player{logger: logger, encoder: encoder}, nil
}

// Play decodes the stream, resamples it to Discord's 48kHz stereo and
// pushes encoded frames to the connection until the stream ends or the
// context is canceled.
func (p *Player) Play(ctx context.Context, conn VoiceConn, stream *opus.Stream) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := conn.Speaking(true); err != nil {
		return err
	}
	defer conn.Speaking(false)

	// The resampler carries filter state across chunks, so it is
	// created per playback rather than shared.
	rs := resampler.New(1, ttsSampleRate, SampleRate, 4)

	var pending []float32
	decodeBuf := make([]float32, FrameSize*8)
	for {
		n, err := stream.ReadFloat32(decodeBuf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		resampled := make([]float32, n*SampleRate/ttsSampleRate+16)
		_, written := rs.ProcessFloat32(0, decodeBuf[:n], resampled)
		pending = append(pending, resampled[:written]...)

		var sendErr error
		pending, sendErr = p.sendFullFrames(ctx, conn, pending)
		if sendErr != nil {
			return sendErr
		}
	}

	// Pad the trailing partial frame with silence
	if len(pending) > 0 {
		pending = append(pending, make([]float32, FrameSize-len(pending))...)
		if _, err := p.sendFullFrames(ctx, conn, pending); err != nil {
			return err
		}
	}
	return nil
}

// sendFullFrames encodes and sends every complete 20ms frame in the
// mono sample buffer and returns the remainder.
func (p *Player) sendFullFrames(ctx context.Context, conn VoiceConn, mono []float32) ([]float32, error) {
	packet := make([]byte, 4000)
	for len(mono) >= FrameSize {
		frame := make([]float32, pcmLength)
		for i, sample := range mono[:FrameSize] {
			frame[i*2] = sample
			frame[i*2+1] = sample
		}
		mono = mono[FrameSize:]

		n, err := p.encoder.EncodeFloat32(frame, packet)
		if err != nil {
			return nil, err
		}
		encoded := make([]byte, n)
		copy(encoded, packet[:n])

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case conn.OpusSend() <- encoded:
		}
	}
	return mono, nil
}
