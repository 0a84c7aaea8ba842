package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"posture-coach/config"
	telegram "posture-coach/internal/api"
	"posture-coach/internal/container"
	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
	"posture-coach/internal/infrastructure/logger"
	"posture-coach/internal/infrastructure/notify"
	"posture-coach/internal/infrastructure/pose"
	"posture-coach/internal/infrastructure/vision"
)

var rootCmd = &cobra.Command{
	Use:          "posture-coach",
	Short:        "Posture Coach",
	Long:         `Scores sitting posture from a webcam feed and pushes feedback to Telegram, Redis and logs.`,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntP("device", "d", -1, "Camera device index (overrides CAMERA_DEVICE)")
	rootCmd.Flags().BoolP("preview", "p", false, "Show preview window with landmarks (needs gocv build tag)")
	rootCmd.Flags().Bool("headless", false, "Start the camera immediately and run without Telegram")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	device, _ := cmd.Flags().GetInt("device")
	preview, _ := cmd.Flags().GetBool("preview")
	headless, _ := cmd.Flags().GetBool("headless")
	if device >= 0 {
		cfg.CameraDevice = device
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if !headless && cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required unless --headless is set")
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := pose.NewWSDetector(cfg.PoseDetectorURL, log)
	defer detector.Close()

	var renderer port.FrameRenderer
	if preview {
		window := vision.NewPreviewWindow("Posture Snapshot")
		defer window.Close()
		renderer = window
	}

	sinks := []port.PresentationSink{notify.NewLogSink(log)}
	if cfg.RedisAddress != "" {
		client := notify.NewRedisClient(ctx, cfg.RedisAddress, cfg.RedisPassword, log)
		defer client.Close()
		sinks = append(sinks, notify.NewRedisSink(client, cfg.RedisChannel, log))
	}

	// Собираем конвейер оценки
	appContainer := container.New(vision.NewCamera(cfg.CameraDevice), detector, renderer, log, container.Settings{
		Width:         cfg.FrameWidth,
		Height:        cfg.FrameHeight,
		Side:          entity.Side(cfg.PostureSide),
		MinVisibility: cfg.MinVisibility,
	})
	defer appContainer.Close()

	if headless {
		appContainer.Sinks.Set(sinks...)
		return runHeadless(ctx, appContainer, log)
	}

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.FrameSource, appContainer.States, log, telegram.Options{
		AllowedChatID: cfg.TelegramChatID,
		PushInterval:  cfg.PushInterval,
	})
	if err != nil {
		return err
	}
	appContainer.Sinks.Set(append(sinks, bot)...)

	log.Info("Bot is running...")
	return bot.Run(ctx)
}

func runHeadless(ctx context.Context, c *container.Container, log *logrus.Logger) error {
	if err := c.FrameSource.Enable(ctx); err != nil {
		return err
	}

	log.Info("Capturing, press Ctrl+C to stop...")

	// Камера может пропасть посреди сессии, тогда выходим.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-ticker.C:
			if !c.FrameSource.Active() {
				log.Warn("camera session ended")
				running = false
			}
		}
	}

	stats := c.FrameSource.Stats()
	log.WithFields(logrus.Fields{
		"captured": stats.Captured,
		"dropped":  stats.Dropped,
		"failures": stats.DetectionFailures,
		"scored":   stats.Scored,
	}).Info("capture finished")
	return nil
}
