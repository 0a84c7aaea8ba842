package pose

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// detectResponse ответ сервиса оценки позы
type detectResponse struct {
	Landmarks []entity.Landmark `json:"landmarks"`
	Error     string            `json:"error,omitempty"`
}

// WSDetector клиент сервиса оценки позы по websocket.
// Кадр уходит бинарным сообщением в JPEG, в ответ приходит JSON с точками.
type WSDetector struct {
	url          string
	dialer       *websocket.Dialer
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          *logrus.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSDetector создаёт клиента; соединение открывается при первом кадре.
func NewWSDetector(url string, log *logrus.Logger) *WSDetector {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	return &WSDetector{
		url:          url,
		dialer:       &dialer,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
		log:          log,
	}
}

// Detect отправляет кадр и ждёт точки позы. (nil, nil) если человека нет.
func (d *WSDetector) Detect(ctx context.Context, img entity.Image) ([]entity.Landmark, error) {
	if img.Empty() {
		return nil, errors.New("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := d.connection(ctx)
	if err != nil {
		return nil, err
	}

	conn.SetWriteDeadline(time.Now().Add(d.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, img.Data); err != nil {
		d.drop()
		return nil, fmt.Errorf("send frame: %w", err)
	}

	// Таймаут ставим до подписки на отмену, иначе он затрёт дедлайн отмены.
	conn.SetReadDeadline(time.Now().Add(d.readTimeout))
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, message, err := conn.ReadMessage()
	if err != nil {
		d.drop()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read landmarks: %w", err)
	}

	var resp detectResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("decode landmarks: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}
	if len(resp.Landmarks) == 0 {
		return nil, nil
	}

	return resp.Landmarks, nil
}

// Close закрывает соединение с сервисом.
func (d *WSDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *WSDetector) connection(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}

	conn, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to pose service %s: %w", d.url, err)
	}

	d.log.WithFields(logrus.Fields{
		"url": d.url,
	}).Info("[WSDetector.connection] connected to pose service")

	d.conn = conn
	return conn, nil
}

func (d *WSDetector) drop() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// Проверка реализации интерфейса
var _ port.LandmarkDetector = (*WSDetector)(nil)
