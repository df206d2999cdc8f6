package scylla

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gocql/gocql"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

// Reads and writes share a level so a reload after Append sees the new row.
const messageConsistency = gocql.Quorum

const messageColumns = `conversation_id, message_id, sender_id, sender_name, type, text, image_url, file_url, file_name, file_size`

// MessageLog keeps one partition per conversation, clustered by timeuuid.
// The timeuuid is assigned here and is the message's id and timestamp.
type MessageLog struct {
	session *gocql.Session
}

func NewMessageLog(session *gocql.Session) *MessageLog {
	return &MessageLog{session: session}
}

func (l *MessageLog) Append(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if l.session == nil {
		return chat.Message{}, errors.New("scylla session not initialized")
	}
	id := gocql.TimeUUID()
	msg.ID = id.String()
	msg.CreatedAt = id.Time().UTC()
	err := l.session.
		Query(`INSERT INTO chat_messages (`+messageColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.ConversationID, id, msg.SenderID, msg.SenderName, string(msg.Type),
			msg.Text, msg.ImageURL, msg.FileURL, msg.FileName, msg.FileSize, msg.CreatedAt).
		WithContext(ctx).
		Consistency(messageConsistency).
		Exec()
	if err != nil {
		return chat.Message{}, fmt.Errorf("scylla: append message: %w", err)
	}
	return msg, nil
}

func (l *MessageLog) List(ctx context.Context, conversationID string) ([]chat.Message, error) {
	if l.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	iter := l.session.
		Query(`SELECT `+messageColumns+` FROM chat_messages WHERE conversation_id = ?`, strings.TrimSpace(conversationID)).
		WithContext(ctx).
		Consistency(messageConsistency).
		Iter()
	out := make([]chat.Message, 0)
	var row messageRow
	for iter.Scan(row.dest()...) {
		out = append(out, row.toMessage())
		row = messageRow{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("scylla: list messages: %w", err)
	}
	return out, nil
}

func (l *MessageLog) Latest(ctx context.Context, conversationID string) (*chat.Message, error) {
	if l.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	var row messageRow
	err := l.session.
		Query(`SELECT `+messageColumns+` FROM chat_messages WHERE conversation_id = ? ORDER BY message_id DESC LIMIT 1`, strings.TrimSpace(conversationID)).
		WithContext(ctx).
		Consistency(messageConsistency).
		Scan(row.dest()...)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scylla: latest message: %w", err)
	}
	msg := row.toMessage()
	return &msg, nil
}

type messageRow struct {
	ConversationID string
	MessageID      gocql.UUID
	SenderID       string
	SenderName     string
	Type           string
	Text           string
	ImageURL       string
	FileURL        string
	FileName       string
	FileSize       int64
}

func (r *messageRow) dest() []interface{} {
	return []interface{}{
		&r.ConversationID, &r.MessageID, &r.SenderID, &r.SenderName, &r.Type,
		&r.Text, &r.ImageURL, &r.FileURL, &r.FileName, &r.FileSize,
	}
}

func (r messageRow) toMessage() chat.Message {
	return chat.Message{
		ID:             r.MessageID.String(),
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		SenderName:     r.SenderName,
		Type:           chat.MessageType(r.Type),
		Text:           r.Text,
		ImageURL:       r.ImageURL,
		FileURL:        r.FileURL,
		FileName:       r.FileName,
		FileSize:       r.FileSize,
		CreatedAt:      r.MessageID.Time().UTC(),
	}
}

var _ policies.MessageLog = (*MessageLog)(nil)
