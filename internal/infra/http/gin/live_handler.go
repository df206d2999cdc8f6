package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campuschat/internal/app/dto"
	chathandlers "campuschat/internal/app/handlers/chat"
	"campuschat/internal/app/live"
	"campuschat/internal/app/session"
	"campuschat/internal/domain/chat"
	domainuser "campuschat/internal/domain/user"
)

const (
	frameThread        = "thread"
	frameConversations = "conversations"
	frameSent          = "sent"
	frameError         = "error"

	clientSend       = "send"
	clientAttachment = "attachment"
)

// base64 inflates a 10 MB attachment by a third.
const maxClientFrameBytes = chat.MaxAttachmentBytes*4/3 + 64<<10

type SessionOpener interface {
	Open(ctx context.Context, actor domainuser.Identity, conversationID string) (*session.Session, error)
}

type DirectoryWatcher interface {
	Watch(ctx context.Context, userID string, f chat.Filter) (*live.Stream[[]chat.Summary], error)
}

// LiveHandler upgrades live endpoints to WebSockets. Each socket carries one
// stream; the socket closes when the stream ends.
type LiveHandler struct {
	Sessions     SessionOpener
	Directory    DirectoryWatcher
	Upgrader     websocket.Upgrader
	PingInterval time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

type liveFrame struct {
	Type          string                `json:"type"`
	Thread        *dto.MessageThread    `json:"thread,omitempty"`
	Conversations *dto.ConversationList `json:"conversations,omitempty"`
	Message       *dto.ChatMessage      `json:"message,omitempty"`
	ClientKey     string                `json:"client_key,omitempty"`
	Error         string                `json:"error,omitempty"`
}

type clientFrame struct {
	Type      string `json:"type"`
	ClientKey string `json:"client_key"`
	sendMessageRequest
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Conversations streams the caller's directory.
func (h LiveHandler) Conversations(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stream, err := h.Directory.Watch(ctx, string(identity.ID), filterFromQuery(c))
	if err != nil {
		respondError(c, h.Logger, err, "watch conversations", "user_id", identity.ID)
		return
	}
	defer stream.Close()

	lc, err := h.upgrade(c)
	if err != nil {
		return
	}
	defer lc.close()
	go lc.discardReads(cancel)

	pump(ctx, lc, h.pingInterval(), stream.Updates(), stream.Done(), stream.Err, func(items []chat.Summary) liveFrame {
		list := dto.MapSummaries(items)
		return liveFrame{Type: frameConversations, Conversations: &list}
	})
}

// Conversation opens a messaging session: the caller's unread counter is
// reset once, then the ordered thread is pushed after every change. Clients
// send messages and attachments over the same socket.
func (h LiveHandler) Conversation(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	sess, err := h.Sessions.Open(ctx, identity, conversationID)
	if err != nil {
		respondError(c, h.Logger, err, "open session", "conversation_id", conversationID, "user_id", identity.ID)
		return
	}
	defer sess.Close()

	lc, err := h.upgrade(c)
	if err != nil {
		return
	}
	defer lc.close()
	go h.readCommands(ctx, cancel, lc, sess)

	pump(ctx, lc, h.pingInterval(), sess.Updates(), sess.Done(), sess.Err, func(t chathandlers.Thread) liveFrame {
		thread := dto.MapThread(t.ConversationID, t.Messages, t.Groups)
		return liveFrame{Type: frameThread, Thread: &thread}
	})
}

func (h LiveHandler) readCommands(ctx context.Context, cancel context.CancelFunc, lc *liveConn, sess *session.Session) {
	defer cancel()
	lc.conn.SetReadLimit(maxClientFrameBytes)
	for {
		var frame clientFrame
		if err := lc.conn.ReadJSON(&frame); err != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(frame.Type)) {
		case clientSend:
			go h.reply(lc, frame.ClientKey, func() (chat.Message, error) {
				return sess.Send(ctx, frame.payload(), frame.ClientKey)
			})
		case clientAttachment:
			go h.reply(lc, frame.ClientKey, func() (chat.Message, error) {
				return sess.SendAttachment(ctx, session.Attachment{
					FileName:     frame.FileName,
					ContentType:  frame.ContentType,
					DeclaredSize: frame.FileSize,
					Data:         frame.Data,
				})
			})
		default:
			_ = lc.write(liveFrame{Type: frameError, ClientKey: frame.ClientKey, Error: "unknown frame type"})
		}
	}
}

func (h LiveHandler) reply(lc *liveConn, clientKey string, send func() (chat.Message, error)) {
	msg, err := send()
	if err != nil {
		status, message := classify(err)
		if h.Logger != nil && status >= http.StatusInternalServerError {
			h.Logger.Error("live send failed", "error", err)
		}
		_ = lc.write(liveFrame{Type: frameError, ClientKey: clientKey, Error: message})
		return
	}
	out := dto.MapMessage(msg)
	_ = lc.write(liveFrame{Type: frameSent, ClientKey: clientKey, Message: &out})
}

func (h LiveHandler) upgrade(c *gin.Context) (*liveConn, error) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket upgrade failed", "error", err)
		}
		return nil, err
	}
	timeout := h.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &liveConn{conn: conn, writeTimeout: timeout}, nil
}

func (h LiveHandler) pingInterval() time.Duration {
	if h.PingInterval <= 0 {
		return 30 * time.Second
	}
	return h.PingInterval
}

// pump forwards stream values to the socket until the stream ends, the
// client goes away or a write fails. A failed stream sends one error frame.
func pump[T any](ctx context.Context, lc *liveConn, pingEvery time.Duration, updates <-chan T, done <-chan struct{}, streamErr func() error, frame func(T) liveFrame) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if err := lc.write(frame(v)); err != nil {
				return
			}
		case <-done:
			if err := streamErr(); err != nil {
				_, message := classify(err)
				_ = lc.write(liveFrame{Type: frameError, Error: message})
			}
			return
		case <-ticker.C:
			if err := lc.ping(); err != nil {
				return
			}
		}
	}
}

// liveConn serializes writers; gorilla connections allow one at a time.
type liveConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func (l *liveConn) write(f liveFrame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout))
	return l.conn.WriteJSON(f)
}

func (l *liveConn) ping() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(l.writeTimeout))
}

// discardReads drains control frames and cancels once the client disconnects.
func (l *liveConn) discardReads(cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := l.conn.NextReader(); err != nil {
			return
		}
	}
}

func (l *liveConn) close() {
	l.mu.Lock()
	_ = l.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	l.mu.Unlock()
	_ = l.conn.Close()
}
