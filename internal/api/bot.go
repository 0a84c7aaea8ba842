package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	app "posture-coach/internal/application"
	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я слежу за осанкой через камеру.

📋 Команды:
/camera_on — включить камеру
/camera_off — выключить камеру
/score — последняя оценка
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Включите камеру командой /camera_on
2️⃣ Сядьте боком к камере, чтобы были видны ухо и плечо
3️⃣ Бот будет присылать оценку осанки и подсказку

📋 Команды:
/camera_on — включить камеру
/camera_off — выключить камеру
/score — последняя оценка
/stats — статистика захвата`

	msgCameraOn       = "📷 Камера включена. Оценки будут приходить сюда."
	msgCameraOff      = "⏹ Камера выключена."
	msgNoScore        = "🤷 Оценки пока нет. Включите камеру: /camera_on"
	msgUseCommands    = "❓ Я понимаю только команды. Используйте /help для справки."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgForbidden      = "🔒 Этот бот закреплён за другим чатом."
	msgNoPermission   = "🚫 Нет доступа к камере. Проверьте права на устройство."
	msgNoDevice       = "⚠️ Камера недоступна. Подключите камеру и попробуйте снова."
	msgFailed         = "⚠️ Не удалось запустить оценку осанки."
)

// Long polling держит запрос до pollTimeout секунд, таймаут клиента должен быть больше.
const (
	pollTimeout    = 60
	requestTimeout = 75 * time.Second
)

// CameraControl управление захватом кадров
type CameraControl interface {
	Enable(ctx context.Context) error
	Disable()
	Active() bool
	Stats() app.CaptureStats
}

// StateReader источник последнего состояния движка
type StateReader interface {
	Snapshot() entity.EngineState
}

// sender часть BotAPI, через которую уходят сообщения
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Options настройки бота
type Options struct {
	AllowedChatID int64         // 0 - любой чат
	PushInterval  time.Duration // минимальный интервал между оценками в чате
}

// Bot представляет Telegram-бота: пульт камеры и экран для оценок
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  sender
	control CameraControl
	states  StateReader
	limiter *rate.Limiter
	log     *logrus.Logger
	allowed int64
	chatID  atomic.Int64 // чат, включивший камеру
}

// NewBot создаёт нового бота
func NewBot(token string, control CameraControl, states StateReader, log *logrus.Logger, opts Options) (*Bot, error) {
	// Без таймаута зависший запрос к Telegram держал бы доставку оценок бесконечно.
	client := &http.Client{Timeout: requestTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"account": api.Self.UserName,
	}).Info("[telegram.NewBot] authorized")

	b := newBot(api, control, states, log, opts)
	b.api = api
	return b, nil
}

func newBot(s sender, control CameraControl, states StateReader, log *logrus.Logger, opts Options) *Bot {
	interval := opts.PushInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	b := &Bot{
		sender:  s,
		control: control,
		states:  states,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		log:     log,
		allowed: opts.AllowedChatID,
	}
	if opts.AllowedChatID != 0 {
		b.chatID.Store(opts.AllowedChatID)
	}
	return b
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram api is not configured")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if b.allowed != 0 && msg.Chat.ID != b.allowed {
		b.sendMessage(msg.Chat.ID, msgForbidden)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgUseCommands)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "camera_on":
		b.chatID.Store(msg.Chat.ID)
		if err := b.control.Enable(ctx); err != nil {
			b.sendMessage(msg.Chat.ID, describeError(err))
			return
		}
		b.sendMessage(msg.Chat.ID, msgCameraOn)

	case "camera_off":
		b.control.Disable()
		b.sendMessage(msg.Chat.ID, msgCameraOff)

	case "score":
		b.sendMessage(msg.Chat.ID, formatSnapshot(b.states.Snapshot()))

	case "stats":
		b.sendMessage(msg.Chat.ID, formatStats(b.control.Stats()))

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// ShowPosture отправляет оценку в чат не чаще PushInterval
func (b *Bot) ShowPosture(ctx context.Context, posture entity.Posture) {
	chatID := b.chatID.Load()
	if chatID == 0 || !b.limiter.Allow() {
		return
	}
	b.sendMessage(chatID, formatPosture(posture))
}

// ShowError сообщает в чат, что оценка остановлена
func (b *Bot) ShowError(ctx context.Context, err error) {
	chatID := b.chatID.Load()
	if chatID == 0 {
		return
	}
	b.sendMessage(chatID, describeError(err))
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.log.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		}).Warn("[Bot.sendMessage] failed to send message")
	}
}

func formatPosture(p entity.Posture) string {
	return fmt.Sprintf("🧍 Posture Score: %d%%\n%s", p.Score, p.Tip)
}

func formatSnapshot(state entity.EngineState) string {
	if !state.HasPosture {
		return msgNoScore
	}
	status := "выключена"
	if state.Enabled {
		status = "включена"
	}
	return fmt.Sprintf("%s\n\n📷 Камера %s, кадр #%d", formatPosture(state.Posture), status, state.Posture.FrameSeq)
}

func formatStats(s app.CaptureStats) string {
	return fmt.Sprintf("📊 Кадров: %d, пропущено: %d, ошибок детектора: %d, оценок: %d",
		s.Captured, s.Dropped, s.DetectionFailures, s.Scored)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, entity.ErrPermissionDenied):
		return msgNoPermission
	case errors.Is(err, entity.ErrDeviceUnavailable):
		return msgNoDevice
	default:
		return msgFailed
	}
}

var _ port.PresentationSink = (*Bot)(nil)
