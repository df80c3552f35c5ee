package voice

import (
	"context"
	"sync"

	apperrors "alvin-bot/pkg/errors"

	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"
)

// InboundPacket is one Opus packet received from a voice channel
type InboundPacket struct {
	SSRC uint32
	Opus []byte
}

// VoiceConn is the subset of a voice connection the bot uses
type VoiceConn interface {
	Speaking(speaking bool) error
	OpusSend() chan<- []byte
	OpusRecv() <-chan *InboundPacket
	Disconnect() error
}

// Connector joins voice channels and resolves users' voice state
type Connector interface {
	// UserVoiceChannel returns the channel the user currently occupies,
	// or an empty string when the user is not in a voice channel.
	UserVoiceChannel(guildID, userID string) (string, error)
	// Join connects to a voice channel. onSpeaker is invoked whenever a
	// speaking update maps an RTP source to a user.
	Join(guildID, channelID string, onSpeaker func(ssrc uint32, userID string)) (VoiceConn, error)
}

// Session is the bot's per-guild voice-connection and listening state
type Session struct {
	GuildID   string
	ChannelID string

	conn     VoiceConn
	listener *Listener
	player   *Player
	decoders *DecoderPool
	logger   *zap.Logger
	cancel   context.CancelFunc

	mu        sync.Mutex
	speakers  map[uint32]string
	capturing bool
	engaged   bool
}

// Utterances returns the session's flushed-utterance channel
func (s *Session) Utterances() <-chan Utterance {
	return s.listener.Utterances()
}

// BufferedUsers returns users with audio currently buffered
func (s *Session) BufferedUsers() []string {
	return s.listener.BufferedUsers()
}

// SetCapturing enables or disables audio buffering for the session
func (s *Session) SetCapturing(capturing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturing = capturing
	if !capturing {
		s.engaged = false
	}
}

// Capturing reports whether frames are being buffered
func (s *Session) Capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

// SetEngaged flips conversational listening, set by the wake phrase
// and cleared by a farewell
func (s *Session) SetEngaged(engaged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engaged = engaged
}

// Engaged reports whether utterances route to the conversation engine
func (s *Session) Engaged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engaged
}

// Speak plays a synthesized stream into the session's voice channel
func (s *Session) Speak(ctx context.Context, stream *opus.Stream) error {
	defer stream.Close()
	return s.player.Play(ctx, s.conn, stream)
}

func (s *Session) setSpeaker(ssrc uint32, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakers[ssrc] = userID
}

func (s *Session) speaker(ssrc uint32) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.speakers[ssrc]
	return userID, ok
}

func (s *Session) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-s.conn.OpusRecv():
			if !ok {
				return
			}
			if !s.Capturing() {
				continue
			}
			userID, known := s.speaker(packet.SSRC)
			if !known {
				continue
			}
			pcm, err := s.decoders.Decode(packet.SSRC, packet.Opus)
			if err != nil {
				s.logger.Warn("failed to decode opus packet",
					zap.Uint32("ssrc", packet.SSRC),
					zap.String("user_id", userID),
					zap.Error(err),
				)
				continue
			}
			s.listener.HandleFrame(userID, pcm)
		}
	}
}

func (s *Session) close() {
	s.cancel()
	s.listener.Close()
	if err := s.conn.Disconnect(); err != nil {
		s.logger.Warn("failed to disconnect voice connection",
			zap.String("guild_id", s.GuildID),
			zap.Error(err),
		)
	}
}

// SessionInfo is a point-in-time snapshot of a session for the status API
type SessionInfo struct {
	GuildID       string   `json:"guild_id"`
	ChannelID     string   `json:"channel_id"`
	Capturing     bool     `json:"capturing"`
	Engaged       bool     `json:"engaged"`
	BufferedUsers []string `json:"buffered_users"`
}

// Manager tracks which voice channel the bot occupies per guild
type Manager struct {
	connector   Connector
	listenerCfg ListenerConfig
	logger      *zap.Logger
	onSession   func(*Session)

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a voice session manager. onSession is invoked for
// every session created by Join so the caller can consume its utterances.
func NewManager(connector Connector, listenerCfg ListenerConfig, onSession func(*Session), logger *zap.Logger) *Manager {
	return &Manager{
		connector:   connector,
		listenerCfg: listenerCfg,
		logger:      logger,
		onSession:   onSession,
		sessions:    make(map[string]*Session),
	}
}

// Join connects to the voice channel the invoking user occupies
func (m *Manager) Join(guildID, userID string) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, apperrors.ErrNotConnected
	}
	if _, exists := m.sessions[guildID]; exists {
		m.mu.Unlock()
		return nil, apperrors.ErrAlreadyConnected
	}
	m.mu.Unlock()

	channelID, err := m.connector.UserVoiceChannel(guildID, userID)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, apperrors.ErrUserNotInChannel
	}

	player, err := NewPlayer(m.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		GuildID:   guildID,
		ChannelID: channelID,
		player:    player,
		decoders:  NewDecoderPool(),
		listener:  NewListener(m.listenerCfg, m.logger),
		logger:    m.logger,
		cancel:    cancel,
		speakers:  make(map[uint32]string),
	}

	conn, err := m.connector.Join(guildID, channelID, session.setSpeaker)
	if err != nil {
		cancel()
		session.listener.Close()
		return nil, err
	}
	session.conn = conn

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		session.close()
		return nil, apperrors.ErrNotConnected
	}
	// Re-check: a concurrent Join for the same guild may have won the
	// race while this one was connecting
	if _, exists := m.sessions[guildID]; exists {
		m.mu.Unlock()
		session.close()
		return nil, apperrors.ErrAlreadyConnected
	}
	m.sessions[guildID] = session
	m.mu.Unlock()

	go session.receiveLoop(ctx)
	if m.onSession != nil {
		m.onSession(session)
	}

	m.logger.Info("joined voice channel",
		zap.String("guild_id", guildID),
		zap.String("channel_id", channelID),
		zap.String("invoked_by", userID),
	)
	return session, nil
}

// Leave disconnects from the guild's voice channel
func (m *Manager) Leave(guildID string) error {
	m.mu.Lock()
	session, ok := m.sessions[guildID]
	if ok {
		delete(m.sessions, guildID)
	}
	m.mu.Unlock()

	if !ok {
		return apperrors.ErrNotConnected
	}

	session.close()
	m.logger.Info("left voice channel", zap.String("guild_id", guildID))
	return nil
}

// Get returns the session for a guild, if any
func (m *Manager) Get(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[guildID]
	return session, ok
}

// SetCapturing enables or disables audio buffering for a guild's session
func (m *Manager) SetCapturing(guildID string, capturing bool) error {
	session, ok := m.Get(guildID)
	if !ok {
		return apperrors.ErrNotConnected
	}
	session.SetCapturing(capturing)
	return nil
}

// Sessions returns snapshots of every active session
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		info := SessionInfo{
			GuildID:   s.GuildID,
			ChannelID: s.ChannelID,
			Capturing: s.capturing,
			Engaged:   s.engaged,
		}
		s.mu.Unlock()
		info.BufferedUsers = s.BufferedUsers()
		infos = append(infos, info)
	}
	return infos
}

// Shutdown disconnects from every guild and stops accepting joins
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	m.logger.Info("voice session manager shut down", zap.Int("sessions_closed", len(sessions)))
}
