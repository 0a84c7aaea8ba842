package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string
	TelegramChatID int64
	PushInterval   time.Duration

	CameraDevice int `validate:"min=0"`
	FrameWidth   int `validate:"min=16,max=4096"`
	FrameHeight  int `validate:"min=16,max=4096"`

	PoseDetectorURL string  `validate:"required,url,startswith=ws"`
	PostureSide     string  `validate:"oneof=left right"`
	MinVisibility   float64 `validate:"min=0,max=1"`

	RedisAddress  string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RedisChannel  string

	LogLevel string `validate:"oneof=trace debug info warn warning error"`
	LogFile  string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		PoseDetectorURL: os.Getenv("POSE_DETECTOR_URL"),
		PostureSide:     getEnv("POSTURE_SIDE", "left"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisChannel:    getEnv("REDIS_CHANNEL", "posture:updates"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.TelegramChatID, err = getInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		return nil, err
	}
	if cfg.PushInterval, err = getDuration("PUSH_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CameraDevice, err = getInt("CAMERA_DEVICE", 0); err != nil {
		return nil, err
	}
	if cfg.FrameWidth, err = getInt("FRAME_WIDTH", 320); err != nil {
		return nil, err
	}
	if cfg.FrameHeight, err = getInt("FRAME_HEIGHT", 240); err != nil {
		return nil, err
	}
	if cfg.MinVisibility, err = getFloat("MIN_VISIBILITY", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения после переопределения флагами
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
