package voice

import (
	"sync"

	"gopkg.in/hraban/opus.v2"
)

const (
	// Discord voice audio parameters
	SampleRate = 48000
	Channels   = 2
	FrameSize  = 960 // samples per channel in a 20ms frame
	pcmLength  = FrameSize * Channels
)

// DecoderPool holds one Opus decoder per RTP source. Discord assigns
// an SSRC per speaking user, and Opus decoders carry state between
// packets, so streams must not share a decoder.
type DecoderPool struct {
	mu       sync.Mutex
	decoders map[uint32]*opus.Decoder
}

// NewDecoderPool creates an empty decoder pool
func NewDecoderPool() *DecoderPool {
	return &DecoderPool{decoders: make(map[uint32]*opus.Decoder)}
}

// Decode decodes one Opus packet from the given source to interleaved
// 48kHz stereo PCM.
func (p *DecoderPool) Decode(ssrc uint32, packet []byte) ([]int16, error) {
	p.mu.Lock()
	decoder, ok := p.decoders[ssrc]
	if !ok {
		var err error
		decoder, err = opus.NewDecoder(SampleRate, Channels)
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		p.decoders[ssrc] = decoder
	}
	p.mu.Unlock()

	pcm := make([]int16, pcmLength)
	n, err := decoder.Decode(packet, pcm)
	if err != nil {
		return nil, err
	}
	return pcm[:n*Channels], nil
}

// Remove discards the decoder state for a source
func (p *DecoderPool) Remove(ssrc uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.decoders, ssrc)
}
