package discord

import (
	"context"
	"errors"
	"strings"

	"alvin-bot/internal/conversation"
	"alvin-bot/internal/voice"
	apperrors "alvin-bot/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Voice is the session-manager surface the dispatcher drives
type Voice interface {
	Join(guildID, userID string) (*voice.Session, error)
	Leave(guildID string) error
	SetCapturing(guildID string, capturing bool) error
}

// Handler routes chat commands to voice-session actions and answers
// plain text messages addressed to the bot with a direct model reply
type Handler struct {
	rootCtx    context.Context
	voice      Voice
	generator  conversation.Generator
	chatPrompt string
	prefix     string
	ownerID    string
	shutdown   func()
	logger     *zap.Logger
}

// NewHandler creates a Discord message handler. rootCtx bounds
// in-flight model calls so they stop with the process; shutdown is
// invoked when the owner runs the shutdown command.
func NewHandler(rootCtx context.Context, v Voice, generator conversation.Generator, chatPrompt, prefix, ownerID string, shutdown func(), logger *zap.Logger) *Handler {
	return &Handler{
		rootCtx:    rootCtx,
		voice:      v,
		generator:  generator,
		chatPrompt: chatPrompt,
		prefix:     prefix,
		ownerID:    ownerID,
		shutdown:   shutdown,
		logger:     logger,
	}
}

// HandleMessage processes a Discord message
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from the bot itself
	if m.Author.ID == s.State.User.ID {
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	if strings.HasPrefix(content, h.prefix) {
		reply := h.Dispatch(m.GuildID, m.Author.ID, strings.TrimPrefix(content, h.prefix))
		if reply != "" {
			if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
				h.logger.Warn("could not send command reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
			}
		}
		return
	}

	// Plain messages only get a chat reply when the bot is mentioned or DMed
	if m.GuildID != "" && !mentionsUser(m, s.State.User.ID) {
		return
	}

	h.handleChat(s, m, content)
}

// Dispatch maps one command to exactly one session-manager action and
// returns the user-visible reply.
func (h *Handler) Dispatch(guildID, authorID, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	name := strings.ToLower(fields[0])

	h.logger.Info("command received",
		zap.String("command", name),
		zap.String("guild_id", guildID),
		zap.String("user_id", authorID),
	)

	switch name {
	case "hello":
		return "Hello!"

	case "join":
		_, err := h.voice.Join(guildID, authorID)
		switch {
		case err == nil:
			return "Joined your voice channel."
		case errors.Is(err, apperrors.ErrAlreadyConnected):
			return "I am already in a voice channel here."
		case errors.Is(err, apperrors.ErrUserNotInChannel):
			return "You are not in a voice channel."
		default:
			h.logger.Error("join failed", zap.String("guild_id", guildID), zap.Error(err))
			return "Could not join the voice channel."
		}

	case "leave":
		err := h.voice.Leave(guildID)
		switch {
		case err == nil:
			return "Left the voice channel."
		case errors.Is(err, apperrors.ErrNotConnected):
			return "I am not in a voice channel."
		default:
			h.logger.Error("leave failed", zap.String("guild_id", guildID), zap.Error(err))
			return "Could not leave the voice channel."
		}

	case "listen":
		if err := h.voice.SetCapturing(guildID, true); err != nil {
			return "I am not in a voice channel. Use " + h.prefix + "join first."
		}
		return "Started listening!"

	case "stop_listening":
		if err := h.voice.SetCapturing(guildID, false); err != nil {
			return "I am currently not listening here."
		}
		return "Stopped listening."

	case "shutdown":
		if authorID != h.ownerID {
			h.logger.Warn("unauthorized shutdown attempt",
				zap.String("user_id", authorID),
				zap.Error(apperrors.ErrNotAuthorized),
			)
			return "You do not have permission to shut down the bot."
		}
		h.shutdown()
		return "Shutting down..."

	default:
		return "Unknown command: " + name
	}
}

// handleChat answers a plain text message with a one-shot model reply,
// the way the voice pipeline would but without history.
func (h *Handler) handleChat(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	reply, err := h.chatReply(content)
	if err != nil {
		h.logger.Error("chat reply failed", zap.String("user_id", m.Author.ID), zap.Error(err))
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		h.logger.Warn("could not send chat reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

// chatReply runs the one-shot model call under the handler's root
// context so shutdown cancels it.
func (h *Handler) chatReply(content string) (string, error) {
	return h.generator.Generate(h.rootCtx, h.chatPrompt, []conversation.Turn{
		{Role: conversation.RoleUser, Content: content},
	})
}

func mentionsUser(m *discordgo.MessageCreate, userID string) bool {
	for _, mention := range m.Mentions {
		if mention.ID == userID {
			return true
		}
	}
	return false
}
