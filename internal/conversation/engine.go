package conversation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Generator produces an assistant reply for an ordered conversation
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}

// Engine maintains per-user conversation histories and drives the
// language model. A turn is appended to history only after the model
// call succeeds, so history always reflects completed exchanges.
type Engine struct {
	generator    Generator
	systemPrompt string
	endMarker    string
	maxTurns     int
	logger       *zap.Logger

	mu        sync.Mutex
	histories map[string]*History
}

// NewEngine creates a conversation engine
func NewEngine(generator Generator, systemPrompt, endMarker string, maxTurns int, logger *zap.Logger) *Engine {
	return &Engine{
		generator:    generator,
		systemPrompt: systemPrompt,
		endMarker:    endMarker,
		maxTurns:     maxTurns,
		logger:       logger,
		histories:    make(map[string]*History),
	}
}

// Reply is the result of one completed conversation turn
type Reply struct {
	Text  string
	Ended bool // the model signaled end of conversation
}

// Respond sends the user's transcript plus rolling history to the model.
// On failure the user turn is not recorded and the error is returned.
func (e *Engine) Respond(ctx context.Context, userID, transcript string) (*Reply, error) {
	e.mu.Lock()
	history := e.histories[userID]
	if history == nil {
		history = NewHistory(e.maxTurns)
		e.histories[userID] = history
	}
	turns := append(history.Turns(), Turn{Role: RoleUser, Content: transcript})
	e.mu.Unlock()

	reply, err := e.generator.Generate(ctx, e.systemPrompt, turns)
	if err != nil {
		return nil, err
	}

	text, ended := e.stripEndMarker(reply)

	e.mu.Lock()
	history.Append(RoleUser, transcript)
	history.Append(RoleAssistant, reply)
	e.mu.Unlock()

	e.logger.Debug("conversation turn completed",
		zap.String("user_id", userID),
		zap.Int("history_len", history.Len()),
		zap.Bool("ended", ended),
	)

	return &Reply{Text: text, Ended: ended}, nil
}

// HistoryLen returns the number of stored turns for a user
func (e *Engine) HistoryLen(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.histories[userID]; h != nil {
		return h.Len()
	}
	return 0
}

// ClearAll drops every user's history
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.histories = make(map[string]*History)
}

// stripEndMarker detects the model's end-of-conversation token as a
// trailing word and removes it from the spoken reply.
func (e *Engine) stripEndMarker(reply string) (string, bool) {
	if e.endMarker == "" {
		return reply, false
	}
	trimmed := strings.TrimSpace(reply)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return reply, false
	}
	last := strings.Trim(fields[len(fields)-1], ".!?")
	if last != e.endMarker {
		return reply, false
	}
	cut := strings.LastIndex(trimmed, fields[len(fields)-1])
	return strings.TrimSpace(trimmed[:cut]), true
}
