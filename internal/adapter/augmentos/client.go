package augmentos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"LockIn/internal/service/lockin"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// ErrClosed возвращается при записи в закрытое соединение.
var ErrClosed = errors.New("augmentos: соединение закрыто")

// Config настройки подключения к облаку AugmentOS.
type Config struct {
	WebsocketURL     string
	PackageName      string
	APIKey           string
	HandshakeTimeout time.Duration
}

// Client — websocket-соединение одной сессии очков.
type Client struct {
	cfg       Config
	sessionID string
	conn      *websocket.Conn
	logger    *zap.SugaredLogger

	writeMu sync.Mutex

	// Канал входящих событий (закрывается при разрыве соединения).
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

var _ lockin.Display = (*Client)(nil)

// Dial подключается к облаку, проходит рукопожатие и подписывается на потоки сессии.
func Dial(ctx context.Context, cfg Config, sessionID string, logger *zap.SugaredLogger) (*Client, error) {
	if cfg.WebsocketURL == "" {
		return nil, errors.New("augmentos: пустой websocket url")
	}
	if sessionID == "" {
		return nil, errors.New("augmentos: пустой sessionId")
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, cfg.WebsocketURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("augmentos: не удалось подключиться к %s (HTTP %d): %w", cfg.WebsocketURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("augmentos: не удалось подключиться к %s: %w", cfg.WebsocketURL, err)
	}

	c := &Client{
		cfg:       cfg,
		sessionID: sessionID,
		conn:      conn,
		logger:    logger,
		events:    make(chan Event, 32),
		done:      make(chan struct{}),
	}
	if err := c.handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) handshake() error {
	if err := c.writeJSON(connectionInit{
		Type:        msgConnectionInit,
		PackageName: c.cfg.PackageName,
		SessionID:   c.sessionID,
		APIKey:      c.cfg.APIKey,
	}); err != nil {
		return fmt.Errorf("augmentos: не удалось отправить %s: %w", msgConnectionInit, err)
	}

	// Ждём ack; прочие сообщения до него пропускаем.
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("augmentos: ожидание %s: %w", msgConnectionAck, err)
		}
		var msg inbound
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.Type == msgConnectionError {
			return fmt.Errorf("augmentos: подключение отклонено: %s", msg.Message)
		}
		if msg.Type == msgConnectionAck {
			break
		}
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	if err := c.writeJSON(subscriptionUpdate{
		Type:          msgSubscription,
		PackageName:   c.cfg.PackageName,
		SessionID:     c.sessionID,
		Subscriptions: subscriptions,
	}); err != nil {
		return fmt.Errorf("augmentos: не удалось отправить подписки: %w", err)
	}
	return nil
}

// readLoop читает сообщения от сервера и публикует их в канал events.
func (c *Client) readLoop() {
	defer close(c.events)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warnw("AugmentOS connection lost", "sessionId", c.sessionID, "error", err)
				}
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ev, ok := parseServerMessage(data)
		if !ok {
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// Events возвращает канал входящих событий сессии.
func (c *Client) Events() <-chan Event { return c.events }

// ShowBitmap показывает картинку (base64 bmp) на основном экране.
func (c *Client) ShowBitmap(base64Image string) error {
	return c.display(layout{LayoutType: layoutBitmap, Data: base64Image}, 0)
}

// ShowTextWall показывает текст на весь экран.
func (c *Client) ShowTextWall(text string, opts lockin.TextWallOptions) error {
	return c.display(layout{LayoutType: layoutTextWall, Text: text}, opts.Duration)
}

func (c *Client) display(l layout, d time.Duration) error {
	return c.writeJSON(displayEvent{
		Type:        msgDisplayEvent,
		PackageName: c.cfg.PackageName,
		SessionID:   c.sessionID,
		View:        viewMain,
		Layout:      l,
		DurationMs:  d.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	})
}

func (c *Client) writeJSON(v any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Close закрывает соединение. Повторный вызов — no-op.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
