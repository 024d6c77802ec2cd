// Package config loads the controller configuration from environment
// variables with production defaults. A .env file in the working directory is
// honored when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// #region types

// Topics names the MQTT topics the controller consumes and produces.
type Topics struct {
	Presence      string
	Weight        string
	StatusCommand string
	Display       string
}

// Config is the full controller configuration.
type Config struct {
	BrokerURL    string
	MQTTUsername string
	MQTTPassword string
	Topics       Topics

	HTTPAddr  string
	JournalDB string

	ImageBaseURL string
	ClassifyURL  string
	ClassifyKey  string
	Model        string
	BgRemovalURL string
	TxnAPIURL    string

	GraceWait time.Duration
}

// #endregion types

// #region load

// Load reads configuration from the environment, applying defaults. Reads a
// .env file first if one exists.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		BrokerURL:    os.Getenv("MQTT_BROKER"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		Topics: Topics{
			Presence:      envOr("TOPIC_PRESENCE", "v1/delivery/sensor/ultrasonic"),
			Weight:        envOr("TOPIC_WEIGHT", "v1/delivery/sensor/weight"),
			StatusCommand: envOr("TOPIC_STATUS_COMMAND", "v1/delivery/command/status"),
			Display:       envOr("TOPIC_DISPLAY", "v1/delivery/display/lcd"),
		},
		HTTPAddr:     envOr("HTTP_ADDR", ":8080"),
		JournalDB:    envOr("JOURNAL_DB", "transactions.db"),
		ImageBaseURL: envOr("IMAGE_BASE_URL", "https://pub-cc75337d33a94efcae6e9d7fddbfaf8a.r2.dev/latest.jpg"),
		ClassifyURL:  envOr("VISION_API_URL", "https://predict.ultralytics.com"),
		ClassifyKey:  os.Getenv("VISION_API_KEY"),
		Model:        envOr("VISION_MODEL", "https://hub.ultralytics.com/models/kxpiyKC1moNO87JkbXlr"),
		BgRemovalURL: os.Getenv("BG_REMOVAL_URL"),
		TxnAPIURL:    os.Getenv("TXN_API_URL"),
		GraceWait:    300 * time.Millisecond,
	}

	if v := os.Getenv("AI_GRACE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.GraceWait = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

// #endregion load

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
