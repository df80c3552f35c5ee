package voice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListenerConfig holds configuration for utterance detection
type ListenerConfig struct {
	SilenceDuration time.Duration // silence before a buffer is flushed as an utterance
	MaxUtterance    time.Duration // force flush for speech running longer than this
	FlushInterval   time.Duration // how often buffers are scanned for silence
	SampleRate      int
	Channels        int
}

// DefaultListenerConfig returns the listener defaults for Discord audio
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		SilenceDuration: 1000 * time.Millisecond,
		MaxUtterance:    30 * time.Second,
		FlushInterval:   100 * time.Millisecond,
		SampleRate:      48000,
		Channels:        2,
	}
}

// Utterance is one continuous span of a user's speech, bounded by silence
type Utterance struct {
	ID      string
	UserID  string
	PCM     []int16
	Started time.Time
	Ended   time.Time
}

// utteranceBuffer accumulates one user's PCM frames between silences.
// A user's buffer moves Idle -> Buffering on the first frame,
// Buffering -> Flushing once no frame arrives within the silence
// window, and back to Idle after the flush.
type utteranceBuffer struct {
	userID    string
	pcm       []int16
	started   time.Time
	lastFrame time.Time
}

// Listener buffers per-user audio frames and flushes complete
// utterances after a silence gap. Frame handling never blocks: if the
// utterance channel is full the flushed utterance is dropped.
type Listener struct {
	cfg        ListenerConfig
	logger     *zap.Logger
	maxSamples int

	mu      sync.Mutex
	buffers map[string]*utteranceBuffer
	closed  bool

	out  chan Utterance
	stop context.CancelFunc
	done chan struct{}
}

// NewListener creates a listener and starts its silence scan loop
func NewListener(cfg ListenerConfig, logger *zap.Logger) *Listener {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = cfg.SilenceDuration / 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		cfg:        cfg,
		logger:     logger,
		maxSamples: int(cfg.MaxUtterance.Seconds()) * cfg.SampleRate * cfg.Channels,
		buffers:    make(map[string]*utteranceBuffer),
		out:        make(chan Utterance, 16),
		stop:       cancel,
		done:       make(chan struct{}),
	}
	go l.scanLoop(ctx)
	return l
}

// Utterances returns the channel of flushed utterances
func (l *Listener) Utterances() <-chan Utterance {
	return l.out
}

// HandleFrame appends one decoded PCM frame to the user's buffer
func (l *Listener) HandleFrame(userID string, pcm []int16) {
	now := time.Now()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	buf, ok := l.buffers[userID]
	if !ok {
		buf = &utteranceBuffer{
			userID:  userID,
			pcm:     make([]int16, 0, l.cfg.SampleRate*l.cfg.Channels), // ~1 second
			started: now,
		}
		l.buffers[userID] = buf
	}
	if len(buf.pcm) == 0 {
		buf.started = now
	}
	buf.pcm = append(buf.pcm, pcm...)
	buf.lastFrame = now

	var flushed *Utterance
	if l.maxSamples > 0 && len(buf.pcm) >= l.maxSamples {
		flushed = l.takeLocked(buf, now)
	}
	l.mu.Unlock()

	if flushed != nil {
		l.emit(*flushed)
	}
}

// BufferedUsers returns the users that currently have a non-empty buffer
func (l *Listener) BufferedUsers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	users := make([]string, 0, len(l.buffers))
	for userID, buf := range l.buffers {
		if len(buf.pcm) > 0 {
			users = append(users, userID)
		}
	}
	return users
}

// Close stops the scan loop and closes the utterance channel.
// Buffered audio that has not reached its silence window is discarded.
// Frames handled after Close are dropped.
func (l *Listener) Close() {
	l.stop()
	<-l.done

	// The out channel is closed under the same lock emit sends under,
	// so a late HandleFrame cannot send on a closed channel.
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.out)
}

func (l *Listener) scanLoop(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, u := range l.takeSilent(now) {
				l.emit(u)
			}
		}
	}
}

// takeSilent collects every buffer whose last frame is older than the
// silence window, in the order the utterances started.
func (l *Listener) takeSilent(now time.Time) []Utterance {
	l.mu.Lock()
	defer l.mu.Unlock()

	var flushed []Utterance
	for _, buf := range l.buffers {
		if len(buf.pcm) == 0 {
			continue
		}
		if now.Sub(buf.lastFrame) < l.cfg.SilenceDuration {
			continue
		}
		flushed = append(flushed, *l.takeLocked(buf, buf.lastFrame))
	}
	for i := 1; i < len(flushed); i++ {
		for j := i; j > 0 && flushed[j].Started.Before(flushed[j-1].Started); j-- {
			flushed[j], flushed[j-1] = flushed[j-1], flushed[j]
		}
	}
	return flushed
}

func (l *Listener) takeLocked(buf *utteranceBuffer, ended time.Time) *Utterance {
	pcm := make([]int16, len(buf.pcm))
	copy(pcm, buf.pcm)
	buf.pcm = buf.pcm[:0]

	return &Utterance{
		ID:      uuid.NewString(),
		UserID:  buf.userID,
		PCM:     pcm,
		Started: buf.started,
		Ended:   ended,
	}
}

func (l *Listener) emit(u Utterance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.out <- u:
	default:
		l.logger.Warn("utterance channel full, dropping utterance",
			zap.String("utterance_id", u.ID),
			zap.String("user_id", u.UserID),
			zap.Int("pcm_samples", len(u.PCM)),
		)
	}
}
