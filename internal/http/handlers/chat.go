package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chadayu1004/smart-apartment-ai/internal/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/http/response"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/httpx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 16 << 10
)

type ChatHandler struct {
	log      *logger.Logger
	sessions *chat.SessionService
	history  services.ChatHistoryService
	upgrader websocket.Upgrader
}

// NewChatHandler accepts websocket upgrades from allowedOrigins; an empty list
// or "*" accepts any origin.
func NewChatHandler(log *logger.Logger, sessions *chat.SessionService, history services.ChatHistoryService, allowedOrigins []string) *ChatHandler {
	return &ChatHandler{
		log:      log.With("handler", "ChatHandler"),
		sessions: sessions,
		history:  history,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// GET /api/chat/messages?tenant_id=&limit=&before_created_at=&before_id=
func (h *ChatHandler) History(c *gin.Context) {
	q, err := services.ParseChatHistoryQuery(
		c.Query("tenant_id"),
		c.Query("limit"),
		c.Query("before_created_at"),
		c.Query("before_id"),
	)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	page, err := h.history.Page(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/chat/ws/:tenant_id?token=... (or Authorization: Bearer)
// Every check happens after the upgrade so a refusal can be reported on the
// socket before it closes with a policy-violation frame.
func (h *ChatHandler) Connect(c *gin.Context) {
	token := httpx.BearerToken(c.Request)
	rawTenant := strings.TrimSpace(c.Param("tenant_id"))

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debug("Chat websocket upgrade failed", "tenant_id", rawTenant, "error", err)
		return
	}
	t := newWSTransport(ws)

	tenantID, perr := strconv.ParseUint(rawTenant, 10, 64)
	if perr != nil || tenantID == 0 {
		err = h.sessions.Refuse(t, apierr.Wrap(apierr.ErrInvalidArgument, "tenant_id must be a positive integer"))
	} else {
		err = h.sessions.Serve(c.Request.Context(), t, token, uint(tenantID))
	}
	switch {
	case err == nil:
		t.closeWith(websocket.CloseNormalClosure, "")
	case chat.IsRejection(err):
		t.closeWith(websocket.ClosePolicyViolation, closeReason(err))
	default:
		t.closeWith(websocket.CloseInternalServerErr, "internal error")
	}
}

// closeReason keeps the reason under the 123-byte control frame limit.
func closeReason(err error) string {
	_, code := apierr.Classify(err)
	return code
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// wsTransport adapts a gorilla connection to chat.Transport. Pings go out as
// control frames, which gorilla allows concurrently with data writes.
type wsTransport struct {
	ws   *websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWSTransport(ws *websocket.Conn) *wsTransport {
	ws.SetReadLimit(wsMaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	t := &wsTransport{ws: ws, done: make(chan struct{})}
	go t.pingLoop()
	return t
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	for {
		typ, data, err := t.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			_ = t.ws.SetReadDeadline(time.Now().Add(wsPongWait))
			return data, nil
		}
	}
}

func (t *wsTransport) WriteJSON(v any) error {
	if err := t.ws.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return t.ws.WriteJSON(v)
}

func (t *wsTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		err = t.ws.Close()
	})
	return err
}

func (t *wsTransport) closeWith(code int, reason string) {
	_ = t.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteWait))
	_ = t.Close()
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
