package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"campuschat/internal/app/commands"
	chathandlers "campuschat/internal/app/handlers/chat"
	"campuschat/internal/app/live"
	"campuschat/internal/app/policies"
	"campuschat/internal/app/queries"
	"campuschat/internal/domain/chat"
	domainuser "campuschat/internal/domain/user"
)

// Controller opens messaging sessions. All writes go through the command bus
// and all reads through the query bus.
type Controller struct {
	Commands      commands.Bus
	Queries       queries.Bus
	Signals       policies.ChangeSignals
	PollInterval  time.Duration
	Logger        *slog.Logger
	ActiveStreams live.Gauge
}

// Session is one participant's open view of one conversation.
type Session struct {
	ctrl           *Controller
	actor          domainuser.Identity
	conversationID string
	stream         *live.Stream[chathandlers.Thread]

	sending   atomic.Bool
	uploading atomic.Bool
	closeOnce sync.Once
}

// Attachment is a local file submitted for upload.
type Attachment struct {
	FileName     string
	ContentType  string
	DeclaredSize int64
	Data         []byte
}

// Open checks access, resets the caller's unread counter once and subscribes
// to the conversation's message log.
func (c *Controller) Open(ctx context.Context, actor domainuser.Identity, conversationID string) (*Session, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	conversationID = strings.TrimSpace(conversationID)
	userID := string(actor.ID)

	if _, err := commands.Dispatch[chathandlers.MarkReadCommand, *chathandlers.MarkReadResult](ctx, c.Commands, chathandlers.MarkReadCommand{
		UserID:         userID,
		ConversationID: conversationID,
	}); err != nil {
		return nil, err
	}

	load := func(ctx context.Context) (chathandlers.Thread, error) {
		return queries.Ask[chathandlers.ListMessagesQuery, chathandlers.Thread](ctx, c.Queries, chathandlers.ListMessagesQuery{
			UserID:         userID,
			ConversationID: conversationID,
		})
	}
	stream, err := live.Watch(ctx, live.Config{
		Signals:  c.Signals,
		Topic:    policies.ConversationTopic(conversationID),
		Interval: c.PollInterval,
		Logger:   c.Logger,
		Active:   c.ActiveStreams,
	}, load, chathandlers.SameThread)
	if err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Debug("session opened", "conversation_id", conversationID, "user_id", userID)
	}
	return &Session{ctrl: c, actor: actor, conversationID: conversationID, stream: stream}, nil
}

func (s *Session) ConversationID() string { return s.conversationID }

// Updates yields the full ordered thread after every change. The newest
// message is Thread.LatestMessageID.
func (s *Session) Updates() <-chan chathandlers.Thread { return s.stream.Updates() }

func (s *Session) Done() <-chan struct{} { return s.stream.Done() }

// Err reports why the stream ended, wrapped in chat.ErrListener. It is nil
// after Close.
func (s *Session) Err() error { return s.stream.Err() }

// Send commits one message. Overlapping sends from the same session are
// rejected with chat.ErrSendInProgress.
func (s *Session) Send(ctx context.Context, payload chat.Payload, clientKey string) (chat.Message, error) {
	if !s.sending.CompareAndSwap(false, true) {
		return chat.Message{}, chat.ErrSendInProgress
	}
	defer s.sending.Store(false)
	return s.send(ctx, payload, clientKey)
}

// SendAttachment uploads a and sends the message referencing it. It holds the
// send guard for its whole duration; a second attachment while one is in
// flight is rejected with chat.ErrUploadInProgress.
func (s *Session) SendAttachment(ctx context.Context, a Attachment) (chat.Message, error) {
	if !s.uploading.CompareAndSwap(false, true) {
		return chat.Message{}, chat.ErrUploadInProgress
	}
	defer s.uploading.Store(false)
	if !s.sending.CompareAndSwap(false, true) {
		return chat.Message{}, chat.ErrSendInProgress
	}
	defer s.sending.Store(false)

	uploaded, err := commands.Dispatch[chathandlers.UploadAttachmentCommand, *chathandlers.UploadAttachmentResult](ctx, s.ctrl.Commands, chathandlers.UploadAttachmentCommand{
		Actor:          s.actor,
		ConversationID: s.conversationID,
		FileName:       a.FileName,
		ContentType:    a.ContentType,
		DeclaredSize:   a.DeclaredSize,
		Data:           a.Data,
	})
	if err != nil {
		return chat.Message{}, err
	}
	if uploaded == nil {
		return chat.Message{}, chat.ErrUploadFailed
	}
	return s.send(ctx, uploaded.Attachment.Payload(), "")
}

func (s *Session) send(ctx context.Context, payload chat.Payload, clientKey string) (chat.Message, error) {
	res, err := commands.Dispatch[chathandlers.SendMessageCommand, *chathandlers.SendMessageResult](ctx, s.ctrl.Commands, chathandlers.SendMessageCommand{
		Actor:          s.actor,
		ConversationID: s.conversationID,
		Payload:        payload,
		ClientKey:      clientKey,
	})
	if err != nil {
		return chat.Message{}, err
	}
	if res == nil {
		return chat.Message{}, errors.New("session: empty send result")
	}
	return res.Message, nil
}

// Close cancels the subscription. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.stream.Close()
		if s.ctrl.Logger != nil {
			s.ctrl.Logger.Debug("session closed", "conversation_id", s.conversationID, "user_id", string(s.actor.ID))
		}
	})
}
