package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testListenerConfig() ListenerConfig {
	return ListenerConfig{
		SilenceDuration: 50 * time.Millisecond,
		MaxUtterance:    30 * time.Second,
		FlushInterval:   10 * time.Millisecond,
		SampleRate:      48000,
		Channels:        2,
	}
}

func recvUtterance(t *testing.T, l *Listener) Utterance {
	t.Helper()
	select {
	case u, ok := <-l.Utterances():
		require.True(t, ok, "utterance channel closed unexpectedly")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for utterance")
		return Utterance{}
	}
}

func assertNoUtterance(t *testing.T, l *Listener, wait time.Duration) {
	t.Helper()
	select {
	case u := <-l.Utterances():
		t.Fatalf("unexpected utterance %s for user %s", u.ID, u.UserID)
	case <-time.After(wait):
	}
}

func TestListener_FlushesOneUtteranceAfterSilence(t *testing.T) {
	l := NewListener(testListenerConfig(), zap.NewNop())
	defer l.Close()

	// Frames arriving back to back must land in a single utterance
	for i := 0; i < 5; i++ {
		l.HandleFrame("user-1", []int16{int16(i), int16(i)})
	}

	u := recvUtterance(t, l)
	assert.Equal(t, "user-1", u.UserID)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, []int16{0, 0, 1, 1, 2, 2, 3, 3, 4, 4}, u.PCM)
	assert.False(t, u.Ended.Before(u.Started))

	assertNoUtterance(t, l, 200*time.Millisecond)
}

func TestListener_SilenceGapSplitsUtterances(t *testing.T) {
	l := NewListener(testListenerConfig(), zap.NewNop())
	defer l.Close()

	l.HandleFrame("user-1", []int16{1, 1})
	first := recvUtterance(t, l)
	assert.Equal(t, []int16{1, 1}, first.PCM)

	l.HandleFrame("user-1", []int16{2, 2})
	second := recvUtterance(t, l)
	assert.Equal(t, []int16{2, 2}, second.PCM)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.Started.Before(first.Started))
}

func TestListener_BuffersUsersIndependently(t *testing.T) {
	l := NewListener(testListenerConfig(), zap.NewNop())
	defer l.Close()

	l.HandleFrame("user-a", []int16{1, 1})
	l.HandleFrame("user-b", []int16{2, 2})

	got := map[string][]int16{}
	for i := 0; i < 2; i++ {
		u := recvUtterance(t, l)
		got[u.UserID] = u.PCM
	}

	assert.Equal(t, []int16{1, 1}, got["user-a"])
	assert.Equal(t, []int16{2, 2}, got["user-b"])
}

func TestListener_ForceFlushAtMaxUtterance(t *testing.T) {
	cfg := testListenerConfig()
	cfg.MaxUtterance = 1 * time.Second
	// Keep the scan loop out of the way so only the cap can flush
	cfg.SilenceDuration = 10 * time.Second

	l := NewListener(cfg, zap.NewNop())
	defer l.Close()

	// One second of stereo audio at 48kHz
	frame := make([]int16, cfg.SampleRate*cfg.Channels)
	l.HandleFrame("user-1", frame)

	u := recvUtterance(t, l)
	assert.Equal(t, "user-1", u.UserID)
	assert.Len(t, u.PCM, cfg.SampleRate*cfg.Channels)
}

func TestListener_BufferedUsers(t *testing.T) {
	cfg := testListenerConfig()
	cfg.SilenceDuration = 10 * time.Second

	l := NewListener(cfg, zap.NewNop())
	defer l.Close()

	assert.Empty(t, l.BufferedUsers())

	l.HandleFrame("user-1", []int16{1, 1})
	assert.Equal(t, []string{"user-1"}, l.BufferedUsers())
}

func TestListener_FramesAfterCloseAreDropped(t *testing.T) {
	cfg := testListenerConfig()
	cfg.MaxUtterance = 1 * time.Second

	l := NewListener(cfg, zap.NewNop())
	l.Close()

	// A frame large enough to trip the force flush must not send on
	// the closed utterance channel
	frame := make([]int16, cfg.SampleRate*cfg.Channels)
	assert.NotPanics(t, func() {
		l.HandleFrame("user-1", frame)
	})
	assert.Empty(t, l.BufferedUsers())
}

func TestListener_CloseClosesUtteranceChannel(t *testing.T) {
	l := NewListener(testListenerConfig(), zap.NewNop())
	l.Close()

	_, ok := <-l.Utterances()
	assert.False(t, ok)
}
