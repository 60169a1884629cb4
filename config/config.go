package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	PlatformDiscord = "discord"
	PlatformSlack   = "slack"
)

// ChannelConfig binds one channel to the text kept sticky in it.
type ChannelConfig struct {
	ID         string
	StickyText string
}

type AppConfig struct {
	// Platform selects which chat platform implementation to use
	Platform string
	// BotToken authenticates against the platform API
	BotToken string

	// CycleInterval is the sleep between full reconciliation passes
	CycleInterval time.Duration
	// PreDeleteDelay runs before each stale-sticky deletion
	PreDeleteDelay time.Duration
	// HTTPTimeout bounds every platform API call
	HTTPTimeout time.Duration

	// StatusAddr is the bind address of the read-only status server; empty
	// disables it
	StatusAddr string

	// Persistence: at most one of StateFilePath / DatabaseURL is set.
	StateFilePath  string
	DatabaseURL    string
	DatabaseSchema string

	// Channels in document order; the reconciler iterates them in this order
	// every cycle.
	Channels []ChannelConfig
}

// PersistenceEnabled reports whether sticky state survives restarts.
func (c *AppConfig) PersistenceEnabled() bool {
	return c.StateFilePath != "" || c.DatabaseURL != ""
}

// LoadConfig builds the full configuration from the positional arguments
// (channels document path, optional state file path) and the environment.
func LoadConfig(args []string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("usage: stickybot <channels.json> [state.json]")
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read channels document %s: %w", args[0], err)
	}
	if err := ValidateChannelsDocument(raw); err != nil {
		return nil, err
	}

	documentToken, channels, err := decodeChannelsDocument(raw)
	if err != nil {
		return nil, err
	}

	platform := getEnvWithDefault("STICKY_PLATFORM", PlatformDiscord)
	if platform != PlatformDiscord && platform != PlatformSlack {
		return nil, fmt.Errorf("STICKY_PLATFORM must be %q or %q, got %q", PlatformDiscord, PlatformSlack, platform)
	}

	// The env token wins; the in-document token is kept for compatibility
	// with configurations that bundle it alongside the channels.
	botToken := os.Getenv("STICKY_BOT_TOKEN")
	if botToken == "" {
		botToken = documentToken
	}
	if botToken == "" {
		return nil, fmt.Errorf("no bot token: set STICKY_BOT_TOKEN or a \"token\" field in the channels document")
	}

	cycleInterval, err := getDurationEnv("STICKY_CYCLE_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, err
	}
	preDeleteDelay, err := getDurationEnv("STICKY_PRE_DELETE_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := getDurationEnv("STICKY_HTTP_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	statusAddr := getEnvWithDefault("STICKY_STATUS_ADDR", "127.0.0.1:8080")
	if statusAddr == "disabled" {
		statusAddr = ""
	}

	config := &AppConfig{
		Platform:       platform,
		BotToken:       botToken,
		CycleInterval:  cycleInterval,
		PreDeleteDelay: preDeleteDelay,
		HTTPTimeout:    httpTimeout,
		StatusAddr:     statusAddr,
		DatabaseURL:    os.Getenv("DB_URL"),
		DatabaseSchema: getEnvWithDefault("DB_SCHEMA", "public"),
		Channels:       channels,
	}

	if len(args) == 2 {
		config.StateFilePath = args[1]
	}
	if config.StateFilePath != "" && config.DatabaseURL != "" {
		return nil, fmt.Errorf("both a state file path and DB_URL are set; pick one persistence backend")
	}

	switch {
	case config.StateFilePath != "":
		log.Printf("✅ Persistence configured: state file %s", config.StateFilePath)
	case config.DatabaseURL != "":
		log.Printf("✅ Persistence configured: Postgres (schema %s)", config.DatabaseSchema)
	default:
		log.Printf("⚠️ Persistence not configured - sticky state will not survive restarts")
	}

	return config, nil
}

// decodeChannelsDocument parses the validated document, preserving the
// channel order of the JSON text. encoding/json map decoding would lose it,
// and the reconciler guarantees a stable configuration-order iteration.
func decodeChannelsDocument(raw []byte) (string, []ChannelConfig, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))

	if _, err := decoder.Token(); err != nil { // opening brace
		return "", nil, fmt.Errorf("failed to parse channels document: %w", err)
	}

	var token string
	var channels []ChannelConfig

	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return "", nil, fmt.Errorf("failed to parse channels document: %w", err)
		}
		key := keyToken.(string)

		switch key {
		case "token":
			if err := decoder.Decode(&token); err != nil {
				return "", nil, fmt.Errorf("failed to parse token field: %w", err)
			}
		case "channels":
			channels, err = decodeOrderedChannels(decoder)
			if err != nil {
				return "", nil, err
			}
		default:
			// Schema validation already rejected unknown fields; skip anyway.
			var ignored json.RawMessage
			if err := decoder.Decode(&ignored); err != nil {
				return "", nil, fmt.Errorf("failed to parse channels document: %w", err)
			}
		}
	}

	return token, channels, nil
}

func decodeOrderedChannels(decoder *json.Decoder) ([]ChannelConfig, error) {
	if _, err := decoder.Token(); err != nil { // opening brace
		return nil, fmt.Errorf("failed to parse channels mapping: %w", err)
	}

	var channels []ChannelConfig
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse channels mapping: %w", err)
		}
		channelID := keyToken.(string)

		var stickyText string
		if err := decoder.Decode(&stickyText); err != nil {
			return nil, fmt.Errorf("failed to parse sticky text for channel %s: %w", channelID, err)
		}

		channels = append(channels, ChannelConfig{ID: channelID, StickyText: stickyText})
	}

	if _, err := decoder.Token(); err != nil { // closing brace
		return nil, fmt.Errorf("failed to parse channels mapping: %w", err)
	}
	return channels, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like \"2s\", got %q: %w", key, value, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %q", key, value)
	}
	return parsed, nil
}
