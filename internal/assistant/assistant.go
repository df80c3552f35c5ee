package assistant

import (
	"context"
	"errors"
	"sync"

	"alvin-bot/internal/conversation"
	"alvin-bot/internal/voice"
	"alvin-bot/internal/wake"
	apperrors "alvin-bot/pkg/errors"

	"go.uber.org/zap"
)

// Transcriber converts one buffered utterance to text
type Transcriber interface {
	Transcribe(ctx context.Context, utteranceID string, pcm []int16) (string, error)
}

// Responder produces the assistant's reply for a transcript
type Responder interface {
	Respond(ctx context.Context, userID, transcript string) (*conversation.Reply, error)
}

// Session is the voice-session surface the assistant drives
type Session interface {
	Engaged() bool
	SetEngaged(engaged bool)
	Utterances() <-chan voice.Utterance
}

// Speaker voices a reply into the session's voice channel
type Speaker func(ctx context.Context, text string) error

// Assistant routes flushed utterances through transcription, the
// wake-phrase gate, the conversation engine and speech playback.
// Every failure is recovered locally: the turn is dropped and the
// session returns to idle.
type Assistant struct {
	transcriber Transcriber
	responder   Responder
	matcher     *wake.Matcher
	logger      *zap.Logger
}

// New creates an assistant
func New(transcriber Transcriber, responder Responder, matcher *wake.Matcher, logger *zap.Logger) *Assistant {
	return &Assistant{
		transcriber: transcriber,
		responder:   responder,
		matcher:     matcher,
		logger:      logger,
	}
}

// Run consumes the session's utterances until the context is canceled
// or the utterance channel closes. One worker runs per user so a
// user's turns stay ordered while different users proceed in parallel.
// Run blocks; callers usually invoke it in a goroutine.
func (a *Assistant) Run(ctx context.Context, sess Session, speak Speaker) {
	var wg sync.WaitGroup
	workers := make(map[string]chan voice.Utterance)
	defer func() {
		for _, ch := range workers {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case utterance, ok := <-sess.Utterances():
			if !ok {
				return
			}
			worker, exists := workers[utterance.UserID]
			if !exists {
				worker = make(chan voice.Utterance, 4)
				workers[utterance.UserID] = worker
				wg.Add(1)
				go func() {
					defer wg.Done()
					for u := range worker {
						a.handleUtterance(ctx, sess, speak, u)
					}
				}()
			}
			select {
			case worker <- utterance:
			default:
				a.logger.Warn("user worker backlog full, dropping utterance",
					zap.String("utterance_id", utterance.ID),
					zap.String("user_id", utterance.UserID),
				)
			}
		}
	}
}

func (a *Assistant) handleUtterance(ctx context.Context, sess Session, speak Speaker, u voice.Utterance) {
	transcript, err := a.transcriber.Transcribe(ctx, u.ID, u.PCM)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSpeech) {
			a.logger.Debug("no speech in utterance", zap.String("utterance_id", u.ID))
		} else {
			a.logger.Error("transcription failed, dropping utterance",
				zap.String("utterance_id", u.ID),
				zap.String("user_id", u.UserID),
				zap.Error(err),
			)
		}
		return
	}

	a.logger.Info("user utterance transcribed",
		zap.String("user_id", u.UserID),
		zap.String("transcript", transcript),
	)

	if !sess.Engaged() {
		if a.matcher.IsWake(transcript) {
			sess.SetEngaged(true)
			a.logger.Info("wake phrase detected", zap.String("user_id", u.UserID))
		}
		// Idle-state flushes never reach the conversation engine
		return
	}

	if a.matcher.IsFarewell(transcript) {
		sess.SetEngaged(false)
		a.logger.Info("farewell phrase detected", zap.String("user_id", u.UserID))
		return
	}

	reply, err := a.responder.Respond(ctx, u.UserID, transcript)
	if err != nil {
		a.logger.Error("generation failed, dropping turn",
			zap.String("user_id", u.UserID),
			zap.Error(err),
		)
		return
	}

	if reply.Ended {
		sess.SetEngaged(false)
		a.logger.Info("conversation ended by model", zap.String("user_id", u.UserID))
	}
	if reply.Text == "" {
		return
	}

	a.logger.Info("assistant reply", zap.String("user_id", u.UserID), zap.String("text", reply.Text))

	// A synthesis or playback failure still counts as a completed turn
	if err := speak(ctx, reply.Text); err != nil {
		a.logger.Warn("could not voice reply",
			zap.String("user_id", u.UserID),
			zap.Error(err),
		)
	}
}
