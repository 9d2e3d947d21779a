// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ayusman/signcoach/internal/expression"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/stability"
)

// Config holds every tunable setting. Values come from SIGNCOACH_*
// environment variables, optionally seeded from a .env file.
type Config struct {
	Addr      string `env:"SIGNCOACH_ADDR"       envDefault:":8080"`
	DBPath    string `env:"SIGNCOACH_DB_PATH"`
	StaticDir string `env:"SIGNCOACH_STATIC_DIR"`

	LogLevel  string `env:"SIGNCOACH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"SIGNCOACH_LOG_FORMAT" envDefault:"text"`

	CameraID        int    `env:"SIGNCOACH_CAMERA_ID"        envDefault:"0"`
	FPS             int    `env:"SIGNCOACH_FPS"              envDefault:"15"`
	MediaPipeScript string `env:"SIGNCOACH_MEDIAPIPE_SCRIPT"`
	PatternsFile    string `env:"SIGNCOACH_PATTERNS_FILE"`

	HandThreshold   float64 `env:"SIGNCOACH_HAND_THRESHOLD"   envDefault:"0.65"`
	MinHandSize     float64 `env:"SIGNCOACH_MIN_HAND_SIZE"    envDefault:"50"`
	ReachSpan       float64 `env:"SIGNCOACH_REACH_SPAN"       envDefault:"0.25"`
	StabilityWindow int     `env:"SIGNCOACH_STABILITY_WINDOW" envDefault:"3"`
	HistorySize     int     `env:"SIGNCOACH_HISTORY_SIZE"     envDefault:"10"`

	EmotionSuccess float64 `env:"SIGNCOACH_EMOTION_SUCCESS" envDefault:"0.35"`
	EmotionMin     float64 `env:"SIGNCOACH_EMOTION_MIN"     envDefault:"0.2"`
	EmotionTarget  float64 `env:"SIGNCOACH_EMOTION_TARGET"  envDefault:"0.4"`
}

// Load reads a .env file if one exists and parses the environment.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the recognition core cannot work with.
func (c Config) Validate() error {
	switch {
	case c.HandThreshold <= 0 || c.HandThreshold >= 1:
		return fmt.Errorf("hand threshold %v must be in (0,1)", c.HandThreshold)
	case c.MinHandSize < 0:
		return fmt.Errorf("min hand size %v must not be negative", c.MinHandSize)
	case c.ReachSpan <= 0 || c.ReachSpan > 1:
		return fmt.Errorf("reach span %v must be in (0,1]", c.ReachSpan)
	case c.StabilityWindow < 1:
		return fmt.Errorf("stability window %d must be at least 1", c.StabilityWindow)
	case c.HistorySize < c.StabilityWindow:
		return fmt.Errorf("history size %d must be at least the stability window %d", c.HistorySize, c.StabilityWindow)
	case c.FPS < 1:
		return fmt.Errorf("fps %d must be at least 1", c.FPS)
	case c.EmotionMin < 0 || c.EmotionMin >= 1:
		return fmt.Errorf("emotion min %v must be in [0,1)", c.EmotionMin)
	case c.EmotionSuccess <= c.EmotionMin || c.EmotionSuccess > 1:
		return fmt.Errorf("emotion success %v must be in (%v,1]", c.EmotionSuccess, c.EmotionMin)
	case c.EmotionTarget <= 0 || c.EmotionTarget > 1:
		return fmt.Errorf("emotion target %v must be in (0,1]", c.EmotionTarget)
	}
	return nil
}

// Handshape returns the hand-shape classifier tuning.
func (c Config) Handshape() handshape.Config {
	return handshape.Config{
		MinHandSize: c.MinHandSize,
		ReachSpan:   c.ReachSpan,
	}
}

// Stability returns the gate tuning.
func (c Config) Stability() stability.Config {
	return stability.Config{
		Threshold:   c.HandThreshold,
		Window:      c.StabilityWindow,
		HistorySize: c.HistorySize,
	}
}

// Expression returns the emotion classifier tuning.
func (c Config) Expression() expression.Config {
	cfg := expression.DefaultConfig()
	cfg.SuccessThreshold = c.EmotionSuccess
	cfg.MinConfidence = c.EmotionMin
	return cfg
}
