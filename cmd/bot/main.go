package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"alvin-bot/internal/adapter"
	"alvin-bot/internal/assistant"
	"alvin-bot/internal/conversation"
	"alvin-bot/internal/discord"
	"alvin-bot/internal/status"
	"alvin-bot/internal/voice"
	"alvin-bot/internal/wake"
	"alvin-bot/pkg/config"
	"alvin-bot/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize logger
	log, err := logger.New(os.Getenv("ENV"))
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Alvin voice bot...")

	// Load configuration; a missing required value is the only fatal error
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	listenerCfg := voice.DefaultListenerConfig()
	listenerCfg.SilenceDuration = cfg.SilenceDuration
	listenerCfg.MaxUtterance = time.Duration(cfg.MaxUtteranceSeconds) * time.Second

	// OpenAI adapters for transcription, generation and synthesis
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	llmAdapter := adapter.NewLLMAdapter(openaiClient, cfg.LLMModel, log)
	sttAdapter := adapter.NewSTTAdapter(openaiClient, cfg.STTModel, cfg.TranscribeLanguage, listenerCfg.SampleRate, log)
	ttsAdapter := adapter.NewTTSAdapter(openaiClient, cfg.TTSModel, cfg.TTSVoice, log)

	engine := conversation.NewEngine(llmAdapter, cfg.SystemPrompt, cfg.EndMarker, cfg.MaxHistoryTurns, log)
	matcher := wake.NewMatcher(cfg.WakePhrases, cfg.FarewellPhrases)
	asst := assistant.New(sttAdapter, engine, matcher, log)

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	// Each new voice session gets its own assistant pipeline
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	connector := voice.NewDiscordConnector(dg, log)
	manager := voice.NewManager(connector, listenerCfg, func(sess *voice.Session) {
		speak := func(ctx context.Context, text string) error {
			stream, err := ttsAdapter.Synthesize(ctx, text)
			if err != nil {
				return err
			}
			return sess.Speak(ctx, stream)
		}
		go asst.Run(rootCtx, sess, speak)
	}, log)

	// Shutdown channel serves CTRL-C and the owner's shutdown command.
	// Registered before anything long-running so an early signal is
	// not lost.
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	handler := discord.NewHandler(
		rootCtx,
		manager,
		llmAdapter,
		cfg.ChatSystemPrompt,
		cfg.CommandPrefix,
		strconv.FormatInt(cfg.OwnerID, 10),
		func() { shutdownChan <- os.Interrupt },
		log,
	)

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Logged in", zap.String("username", s.State.User.Username))
	})
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handler.HandleMessage(s, m)
	})

	// Voice states are required for voice connections, message content
	// for prefix commands
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent

	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	statusServer := status.NewServer(cfg.Port, manager, cfg.IsProduction(), log)

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(statusServer.Run)
	g.Go(func() error {
		// Wait for interrupt signal (from CTRL-C or programmatic shutdown)
		select {
		case sig := <-shutdownChan:
			log.Info("Shutting down", zap.String("signal", sig.String()))
		case <-gctx.Done():
		}

		rootCancel()
		manager.Shutdown()
		engine.ClearAll()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return statusServer.Stop(stopCtx)
	})

	log.Info("Alvin is running. Press CTRL-C to exit.")
	if err := g.Wait(); err != nil {
		log.Error("Shutdown finished with error", zap.Error(err))
	}
}
