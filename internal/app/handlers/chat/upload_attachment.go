package chat

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/policies"
	domainchat "campuschat/internal/domain/chat"
	domainuser "campuschat/internal/domain/user"
)

const uploadAttachmentKey = "chat.attachment.upload"

type UploadAttachmentCommand struct {
	Actor          domainuser.Identity
	ConversationID string
	FileName       string
	ContentType    string
	// DeclaredSize is the size reported by the client, if any.
	DeclaredSize int64
	Data         []byte
}

func (c UploadAttachmentCommand) Key() string { return uploadAttachmentKey }

func (c UploadAttachmentCommand) ActorID() string { return string(c.Actor.ID) }

// Size is the larger of the declared and the received byte count.
func (c UploadAttachmentCommand) Size() int64 {
	size := int64(len(c.Data))
	if c.DeclaredSize > size {
		return c.DeclaredSize
	}
	return size
}

func (c UploadAttachmentCommand) Validate() error {
	return domainchat.ValidateAttachmentSize(c.Size())
}

type UploadAttachmentResult struct {
	Attachment domainchat.UploadResult `json:"attachment"`
}

type UploadAttachmentHandler struct {
	Conversations policies.ConversationRepository
	Store         policies.AttachmentStore
	Now           func() time.Time
}

func (h *UploadAttachmentHandler) Handle(ctx context.Context, cmd UploadAttachmentCommand) (*UploadAttachmentResult, error) {
	if err := domainchat.ValidateAttachmentSize(cmd.Size()); err != nil {
		return nil, err
	}
	conv, _, err := loadForParticipant(ctx, h.Conversations, cmd.ConversationID, string(cmd.Actor.ID))
	if err != nil {
		return nil, err
	}
	if h.Store == nil {
		return nil, fmt.Errorf("%w: attachment store not configured", domainchat.ErrUploadFailed)
	}

	kind := domainchat.KindForContentType(cmd.ContentType)
	fileName := strings.TrimSpace(cmd.FileName)
	path := domainchat.AttachmentPath(conv.ID, kind, fileName, cmd.Data, h.now())
	size := int64(len(cmd.Data))
	url, err := h.Store.Put(ctx, path, bytes.NewReader(cmd.Data), size, contentTypeOrDefault(cmd.ContentType))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainchat.ErrUploadFailed, err)
	}
	return &UploadAttachmentResult{Attachment: domainchat.UploadResult{
		URL:      url,
		Path:     path,
		Kind:     kind,
		FileName: fileName,
		FileSize: size,
	}}, nil
}

func (h *UploadAttachmentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func contentTypeOrDefault(ct string) string {
	if ct = strings.TrimSpace(ct); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var _ commands.Handler[UploadAttachmentCommand, *UploadAttachmentResult] = (*UploadAttachmentHandler)(nil)
