package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"jobBoard/internal/auth"
	"jobBoard/internal/notify"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongWait     = wsPingInterval + 10*time.Second
	wsMaxReadBytes = 4096
)

// WsHandler 负责 WebSocket 鉴权，并把 user_notify:<id> 频道上的支付状态与职位提醒转发给客户端。
type WsHandler struct {
	redisClient    redis.UniversalClient
	authService    *auth.AuthService
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时只允许同源。
func NewWsHandler(redisClient redis.UniversalClient, authService *auth.AuthService, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		authService:    authService,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) > 0 {
		return slices.Contains(h.allowedOrigins, origin)
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// wsAuthMessage 是连接建立后客户端必须发送的第一条消息。
type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接，完成首帧鉴权后订阅用户通知频道。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxReadBytes)

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	userID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go readPump(conn, cancel)

	if err := h.forward(ctx, conn, userID, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// authenticate 读取首帧并校验 access token，超时未鉴权直接断开。
func (h *WsHandler) authenticate(conn *websocket.Conn) (uint, error) {
	if err := conn.SetReadDeadline(time.Now().Add(wsAuthTimeout)); err != nil {
		return 0, err
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read auth message: %w", err)
	}

	var msg wsAuthMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return 0, fmt.Errorf("decode auth message: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		return 0, errors.New("auth message required")
	}
	claims, err := h.authService.ValidateToken(msg.Token, auth.TokenTypeAccess)
	if err != nil {
		return 0, fmt.Errorf("validate token: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return 0, err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	return claims.UserID, nil
}

// readPump 丢弃客户端后续消息，只用于感知断开（含 pong 超时）。
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// forward 是连接上唯一的写者：转发 Redis 消息并定期发送 ping。
func (h *WsHandler) forward(ctx context.Context, conn *websocket.Conn, userID uint, log *slog.Logger) error {
	channel := notify.Channel(userID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	if err := writeJSON(conn, gin.H{"type": "ready"}); err != nil {
		return err
	}
	log.Info("websocket subscribed", slog.String("channel", channel))

	messages := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			writeClose(conn, websocket.CloseNormalClosure, "bye")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
