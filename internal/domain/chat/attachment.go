package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// MaxAttachmentBytes is the inclusive upper bound for one attachment.
const MaxAttachmentBytes int64 = 10 << 20

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "images"
	AttachmentFile  AttachmentKind = "files"
)

// KindForContentType maps a declared MIME type onto a storage namespace.
func KindForContentType(contentType string) AttachmentKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return AttachmentImage
	}
	return AttachmentFile
}

func ValidateAttachmentSize(size int64) error {
	if size > MaxAttachmentBytes {
		return fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, size)
	}
	return nil
}

// AttachmentPath builds chat/<conversation>/<namespace>/<millis>_<digest>_<name>.
func AttachmentPath(conversationID string, kind AttachmentKind, fileName string, data []byte, at time.Time) string {
	sum := sha256.Sum256(data)
	name := fmt.Sprintf("%d_%s_%s", at.UTC().UnixMilli(), hex.EncodeToString(sum[:])[:12], sanitizeFileName(fileName))
	return path.Join("chat", strings.TrimSpace(conversationID), string(kind), name)
}

// ConversationOfPath returns the conversation an attachment path belongs to.
func ConversationOfPath(p string) (string, bool) {
	parts := strings.SplitN(strings.TrimLeft(p, "/"), "/", 4)
	if len(parts) != 4 || parts[0] != "chat" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type UploadResult struct {
	URL      string
	Path     string
	Kind     AttachmentKind
	FileName string
	FileSize int64
}

// Payload turns a finished upload into the message body that references it.
func (r UploadResult) Payload() Payload {
	if r.Kind == AttachmentImage {
		return Payload{ImageURL: r.URL}
	}
	return Payload{FileURL: r.URL, FileName: r.FileName, FileSize: r.FileSize}
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "attachment"
	}
	return out
}
