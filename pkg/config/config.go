package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Discord
	DiscordBotToken string
	OwnerID         int64
	CommandPrefix   string

	// OpenAI
	OpenAIAPIKey string
	LLMModel     string
	STTModel     string
	TTSModel     string
	TTSVoice     string

	// Assistant behavior
	WakePhrases         []string
	FarewellPhrases     []string
	EndMarker           string // LLM reply suffix that ends a conversation
	SystemPrompt        string
	ChatSystemPrompt    string
	TranscribeLanguage  string
	SilenceDuration     time.Duration // silence before an utterance is flushed
	MaxUtteranceSeconds int           // force flush for over-long utterances
	MaxHistoryTurns     int           // per-user conversation history cap
}

const defaultSystemPrompt = "You are Alvin, a friendly and funny voice assistant on a Discord voice channel. " +
	"Answer briefly using words only, and write out any digits and numbers as words. " +
	"If the user thanks you or the conversation has clearly ended, append the word 'True' to the end of your reply."

const defaultChatSystemPrompt = "You are Alvin, a funny text assistant on Discord. " +
	"Always answer concisely, at most one hundred words."

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	ownerID, err := strconv.ParseInt(os.Getenv("OWNER_ID"), 10, 64)
	if os.Getenv("OWNER_ID") != "" && err != nil {
		return nil, fmt.Errorf("OWNER_ID must be an integer: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		OwnerID:         ownerID,
		CommandPrefix:   getEnv("COMMAND_PREFIX", "!"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o"),
		STTModel:        getEnv("STT_MODEL", "whisper-1"),
		TTSModel:        getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:        getEnv("TTS_VOICE", "echo"),

		WakePhrases:         getEnvList("WAKE_PHRASES", []string{"alvin", "alwin"}),
		FarewellPhrases:     getEnvList("FAREWELL_PHRASES", []string{"goodbye", "thank you", "bye"}),
		EndMarker:           getEnv("END_MARKER", "True"),
		SystemPrompt:        getEnv("SYSTEM_PROMPT", defaultSystemPrompt),
		ChatSystemPrompt:    getEnv("CHAT_SYSTEM_PROMPT", defaultChatSystemPrompt),
		TranscribeLanguage:  getEnv("TRANSCRIBE_LANGUAGE", ""),
		SilenceDuration:     time.Duration(getEnvInt("SILENCE_DURATION", 1000)) * time.Millisecond,
		MaxUtteranceSeconds: getEnvInt("MAX_UTTERANCE_SECONDS", 30),
		MaxHistoryTurns:     getEnvInt("MAX_HISTORY_TURNS", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.OwnerID == 0 {
		return fmt.Errorf("OWNER_ID is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.MaxHistoryTurns < 2 {
		return fmt.Errorf("MAX_HISTORY_TURNS must be at least 2")
	}
	if c.SilenceDuration <= 0 {
		return fmt.Errorf("SILENCE_DURATION must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
