package voice

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordConnector implements Connector over a discordgo session
type DiscordConnector struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscordConnector wraps a discordgo session
func NewDiscordConnector(session *discordgo.Session, logger *zap.Logger) *DiscordConnector {
	return &DiscordConnector{session: session, logger: logger}
}

// UserVoiceChannel resolves the voice channel a guild member occupies
func (c *DiscordConnector) UserVoiceChannel(guildID, userID string) (string, error) {
	voiceState, err := c.session.State.VoiceState(guildID, userID)
	if err != nil {
		if err == discordgo.ErrStateNotFound {
			return "", nil
		}
		return "", fmt.Errorf("could not look up voice state: %w", err)
	}
	if voiceState == nil {
		return "", nil
	}
	return voiceState.ChannelID, nil
}

// Join connects to a voice channel without muting or deafening, waits
// for the connection to become ready and registers a speaking-update
// handler that maps RTP sources to user IDs.
func (c *DiscordConnector) Join(guildID, channelID string, onSpeaker func(ssrc uint32, userID string)) (VoiceConn, error) {
	vc, err := c.session.ChannelVoiceJoin(guildID, channelID, false, false)
	if err != nil {
		return nil, fmt.Errorf("could not join voice channel: %w", err)
	}

	startTime := time.Now()
	for {
		if vc.Ready && vc.OpusRecv != nil && vc.OpusSend != nil {
			break
		}
		if time.Since(startTime) > 5*time.Second {
			_ = vc.Disconnect()
			return nil, fmt.Errorf("voice channel won't become ready")
		}
		time.Sleep(50 * time.Millisecond)
	}

	vc.AddHandler(func(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
		onSpeaker(uint32(vs.SSRC), vs.UserID)
	})

	conn := newDiscordVoiceConn(vc)
	go conn.pump()
	return conn, nil
}

// discordVoiceConn adapts *discordgo.VoiceConnection to VoiceConn
type discordVoiceConn struct {
	vc       *discordgo.VoiceConnection
	recv     chan *InboundPacket
	quit     chan struct{}
	quitOnce sync.Once
}

func newDiscordVoiceConn(vc *discordgo.VoiceConnection) *discordVoiceConn {
	return &discordVoiceConn{
		vc:   vc,
		recv: make(chan *InboundPacket, 64),
		quit: make(chan struct{}),
	}
}

// pump copies packets off the discordgo receive channel, dropping the
// discordgo packet envelope. discordgo never closes OpusRecv, so the
// quit channel is the only reliable exit after Disconnect.
func (c *discordVoiceConn) pump() {
	defer close(c.recv)
	for {
		select {
		case <-c.quit:
			return
		case packet, ok := <-c.vc.OpusRecv:
			if !ok {
				return
			}
			select {
			case c.recv <- &InboundPacket{SSRC: packet.SSRC, Opus: packet.Opus}:
			case <-c.quit:
				return
			}
		}
	}
}

func (c *discordVoiceConn) stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *discordVoiceConn) Speaking(speaking bool) error {
	return c.vc.Speaking(speaking)
}

func (c *discordVoiceConn) OpusSend() chan<- []byte {
	return c.vc.OpusSend
}

func (c *discordVoiceConn) OpusRecv() <-chan *InboundPacket {
	return c.recv
}

func (c *discordVoiceConn) Disconnect() error {
	c.stop()
	return c.vc.Disconnect()
}
